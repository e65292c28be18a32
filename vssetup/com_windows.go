// Copyright 2024 The winrig Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

//go:build windows

package vssetup

import (
	"errors"
	"fmt"
	"runtime"
	"syscall"
	"unsafe"

	ole "github.com/go-ole/go-ole"
)

// Interface identifiers of the Setup Configuration API.
//
// https://learn.microsoft.com/en-us/dotnet/api/microsoft.visualstudio.setup.configuration
var (
	clsidSetupConfiguration = ole.NewGUID("{177F0C4A-1CD3-4DE7-A32C-71DBBB9FA36D}")
	iidISetupConfiguration  = ole.NewGUID("{42843719-DB4C-46C2-8E7C-64F1816EFD5B}")
	iidISetupConfiguration2 = ole.NewGUID("{26AAB78C-4A60-49D6-AF3B-3C35BC93365D}")
	iidISetupInstance2      = ole.NewGUID("{89143C9A-05AF-49B0-B717-72E218A2185C}")
)

var (
	oleaut32                = syscall.NewLazyDLL("OleAut32.dll")
	procSysFreeString       = oleaut32.NewProc("SysFreeString")
	procSafeArrayGetLBound  = oleaut32.NewProc("SafeArrayGetLBound")
	procSafeArrayGetUBound  = oleaut32.NewProc("SafeArrayGetUBound")
	procSafeArrayGetElement = oleaut32.NewProc("SafeArrayGetElement")
	procSafeArrayDestroy    = oleaut32.NewProc("SafeArrayDestroy")

	// The redistributable DLL applications ship next to their
	// executable to query setup information without a registered COM
	// class. Loaded through the default search order so an app-local
	// copy is found.
	setupConfigurationDLL     = syscall.NewLazyDLL("Microsoft.VisualStudio.Setup.Configuration.Native.dll")
	procGetSetupConfiguration = setupConfigurationDLL.NewProc("GetSetupConfiguration")
)

const (
	sOK    = 0x00000000
	sFalse = 0x00000001

	// REGDB_E_CLASSNOTREG, raised by CoCreateInstance when the setup
	// configuration class was never registered.
	regdbClassNotReg = 0x80040154

	// E_NOTFOUND (HRESULT_FROM_WIN32(ERROR_NOT_FOUND)), raised by
	// property getters for values an instance does not carry.
	eNotFound = 0x80070490

	// The native header defines the completed-install state as MAXUINT.
	nativeStateComplete = 0xFFFFFFFF
)

// COMOpener connects to the Setup Configuration service over COM.
//
// Open first activates the registered in-proc class and, if the class
// is not registered, falls back to the app-local redistributable DLL.
// The returned provider is bound to the opening goroutine's OS thread;
// use and release it on the goroutine that opened it.
type COMOpener struct{}

// DefaultOpener returns the COM-backed opener.
func DefaultOpener() Opener { return COMOpener{} }

// Open implements Opener.
func (COMOpener) Open() (Provider, error) {
	runtime.LockOSThread()
	opened := false
	defer func() {
		if !opened {
			runtime.UnlockOSThread()
		}
	}()

	if err := coInitialize(); err != nil {
		return nil, fmt.Errorf("initializing COM: %w", err)
	}
	cfg, err := connect()
	if err != nil {
		ole.CoUninitialize()
		return nil, err
	}
	opened = true
	return &comProvider{cfg: cfg}, nil
}

// coInitialize enters the multithreaded apartment. S_FALSE means the
// thread was already initialized and still requires the matching
// CoUninitialize, so it is not an error.
func coInitialize() error {
	err := ole.CoInitializeEx(0, ole.COINIT_MULTITHREADED)
	if err != nil {
		var oleErr *ole.OleError
		if errors.As(err, &oleErr) && oleErr.Code() == sFalse {
			return nil
		}
		return err
	}
	return nil
}

// connect acquires ISetupConfiguration2, which carries both the
// complete-only and the all-instances enumerations.
func connect() (*iSetupConfiguration2, error) {
	cfg, err := createConfiguration()
	if err != nil {
		return nil, err
	}
	defer cfg.Release()

	var cfg2 *iSetupConfiguration2
	hr, _, _ := syscall.SyscallN(cfg.VTable().QueryInterface,
		uintptr(unsafe.Pointer(cfg)),
		uintptr(unsafe.Pointer(iidISetupConfiguration2)),
		uintptr(unsafe.Pointer(&cfg2)))
	if hr != sOK {
		return nil, fmt.Errorf("querying ISetupConfiguration2: %w", ole.NewError(hr))
	}
	return cfg2, nil
}

func createConfiguration() (*iSetupConfiguration, error) {
	unknown, err := ole.CreateInstance(clsidSetupConfiguration, iidISetupConfiguration)
	if err == nil {
		return (*iSetupConfiguration)(unsafe.Pointer(unknown)), nil
	}
	var oleErr *ole.OleError
	if !errors.As(err, &oleErr) || uint32(oleErr.Code()) != regdbClassNotReg {
		return nil, fmt.Errorf("creating setup configuration class: %w", err)
	}
	return appLocalConfiguration()
}

// appLocalConfiguration obtains the service from the redistributable
// DLL after CoCreateInstance reported the class as not registered.
//
// https://learn.microsoft.com/en-us/cpp/porting/visual-cpp-what-s-new-2003-through-2015
//
// STDMETHODIMP GetSetupConfiguration(
//
//	_Out_ ISetupConfiguration** ppConfiguration,
//	_Reserved_ LPVOID pReserved
//
// );
func appLocalConfiguration() (*iSetupConfiguration, error) {
	if err := procGetSetupConfiguration.Find(); err != nil {
		// Neither the registered class nor the app-local DLL exists:
		// the service is not installed on this machine.
		return nil, ErrNotInstalled
	}
	var cfg *iSetupConfiguration
	hr, _, _ := procGetSetupConfiguration.Call(uintptr(unsafe.Pointer(&cfg)), 0)
	if hr != sOK {
		return nil, fmt.Errorf("GetSetupConfiguration: %w", ole.NewError(hr))
	}
	return cfg, nil
}

// Raw interface layouts, transcribed from Setup.Configuration.h.

type iSetupConfiguration struct{ ole.IUnknown }

type iSetupConfigurationVtbl struct {
	ole.IUnknownVtbl
	EnumInstances                uintptr
	GetInstanceForCurrentProcess uintptr
	GetInstanceForPath           uintptr
}

type iSetupConfiguration2 struct{ iSetupConfiguration }

type iSetupConfiguration2Vtbl struct {
	iSetupConfigurationVtbl
	EnumAllInstances uintptr
}

func (v *iSetupConfiguration2) vtbl() *iSetupConfiguration2Vtbl {
	return (*iSetupConfiguration2Vtbl)(unsafe.Pointer(v.RawVTable))
}

type iEnumSetupInstances struct{ ole.IUnknown }

type iEnumSetupInstancesVtbl struct {
	ole.IUnknownVtbl
	Next  uintptr
	Skip  uintptr
	Reset uintptr
	Clone uintptr
}

func (v *iEnumSetupInstances) vtbl() *iEnumSetupInstancesVtbl {
	return (*iEnumSetupInstancesVtbl)(unsafe.Pointer(v.RawVTable))
}

type iSetupInstance struct{ ole.IUnknown }

type iSetupInstance2 struct{ iSetupInstance }

type iSetupInstance2Vtbl struct {
	ole.IUnknownVtbl
	GetInstanceId          uintptr
	GetInstallDate         uintptr
	GetInstallationName    uintptr
	GetInstallationPath    uintptr
	GetInstallationVersion uintptr
	GetDisplayName         uintptr
	GetDescription         uintptr
	ResolvePath            uintptr
	GetState               uintptr
	GetPackages            uintptr
	GetProduct             uintptr
	GetProductPath         uintptr
	GetErrors              uintptr
	IsLaunchable           uintptr
	IsComplete             uintptr
	GetProperties          uintptr
	GetEnginePath          uintptr
}

func (v *iSetupInstance2) vtbl() *iSetupInstance2Vtbl {
	return (*iSetupInstance2Vtbl)(unsafe.Pointer(v.RawVTable))
}

type iSetupPackageReference struct{ ole.IUnknown }

type iSetupPackageReferenceVtbl struct {
	ole.IUnknownVtbl
	GetId          uintptr
	GetVersion     uintptr
	GetChip        uintptr
	GetLanguage    uintptr
	GetBranch      uintptr
	GetType        uintptr
	GetUniqueId    uintptr
	GetIsExtension uintptr
}

func (v *iSetupPackageReference) vtbl() *iSetupPackageReferenceVtbl {
	return (*iSetupPackageReferenceVtbl)(unsafe.Pointer(v.RawVTable))
}

// comProvider adapts ISetupConfiguration2 to Provider.
type comProvider struct {
	cfg *iSetupConfiguration2
}

func (p *comProvider) EnumInstances() (InstanceEnumerator, error) {
	var enum *iEnumSetupInstances
	hr, _, _ := syscall.SyscallN(p.cfg.vtbl().EnumInstances,
		uintptr(unsafe.Pointer(p.cfg)),
		uintptr(unsafe.Pointer(&enum)))
	if hr != sOK {
		return nil, ole.NewError(hr)
	}
	return &comEnumerator{enum: enum}, nil
}

func (p *comProvider) EnumAllInstances() (InstanceEnumerator, error) {
	var enum *iEnumSetupInstances
	hr, _, _ := syscall.SyscallN(p.cfg.vtbl().EnumAllInstances,
		uintptr(unsafe.Pointer(p.cfg)),
		uintptr(unsafe.Pointer(&enum)))
	if hr != sOK {
		return nil, ole.NewError(hr)
	}
	return &comEnumerator{enum: enum}, nil
}

func (p *comProvider) Release() {
	p.cfg.Release()
	ole.CoUninitialize()
	runtime.UnlockOSThread()
}

// comEnumerator adapts IEnumSetupInstances to InstanceEnumerator.
type comEnumerator struct {
	enum *iEnumSetupInstances
}

// Next pulls records one at a time. S_FALSE signals that fewer records
// than requested remained; exhaustion is reported by a fetch count of
// zero, not by an error.
func (e *comEnumerator) Next(n int) ([]InstanceRecord, error) {
	var records []InstanceRecord
	for len(records) < n {
		var inst *iSetupInstance
		var fetched uint32
		hr, _, _ := syscall.SyscallN(e.enum.vtbl().Next,
			uintptr(unsafe.Pointer(e.enum)),
			1,
			uintptr(unsafe.Pointer(&inst)),
			uintptr(unsafe.Pointer(&fetched)))
		if hr != sOK && hr != sFalse {
			releaseRecords(records)
			return nil, ole.NewError(hr)
		}
		if fetched == 0 || inst == nil {
			break
		}
		record, err := newCOMInstance(inst)
		if err != nil {
			releaseRecords(records)
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (e *comEnumerator) Release() {
	e.enum.Release()
}

func releaseRecords(records []InstanceRecord) {
	for _, r := range records {
		r.Release()
	}
}

// newCOMInstance exchanges an ISetupInstance for the ISetupInstance2
// view that carries state, product and package getters. It takes
// ownership of inst.
func newCOMInstance(inst *iSetupInstance) (*comInstance, error) {
	defer inst.Release()
	var inst2 *iSetupInstance2
	hr, _, _ := syscall.SyscallN(inst.VTable().QueryInterface,
		uintptr(unsafe.Pointer(inst)),
		uintptr(unsafe.Pointer(iidISetupInstance2)),
		uintptr(unsafe.Pointer(&inst2)))
	if hr != sOK {
		return nil, fmt.Errorf("querying ISetupInstance2: %w", ole.NewError(hr))
	}
	return &comInstance{raw: inst2}, nil
}

// comInstance adapts ISetupInstance2 to InstanceRecord.
type comInstance struct {
	raw *iSetupInstance2
}

func (r *comInstance) InstanceID() (string, error) {
	return comString(r.raw.vtbl().GetInstanceId, unsafe.Pointer(r.raw))
}

func (r *comInstance) InstallationVersion() (string, error) {
	return comString(r.raw.vtbl().GetInstallationVersion, unsafe.Pointer(r.raw))
}

func (r *comInstance) InstallationPath() (string, error) {
	return comString(r.raw.vtbl().GetInstallationPath, unsafe.Pointer(r.raw))
}

func (r *comInstance) DisplayName(locale uint32) (string, error) {
	return comLocalizedString(r.raw.vtbl().GetDisplayName, unsafe.Pointer(r.raw), locale)
}

func (r *comInstance) Description(locale uint32) (string, error) {
	return comLocalizedString(r.raw.vtbl().GetDescription, unsafe.Pointer(r.raw), locale)
}

func (r *comInstance) State() (uint32, error) {
	var state uint32
	hr, _, _ := syscall.SyscallN(r.raw.vtbl().GetState,
		uintptr(unsafe.Pointer(r.raw)),
		uintptr(unsafe.Pointer(&state)))
	if hr != sOK {
		return 0, ole.NewError(hr)
	}
	if state == nativeStateComplete {
		return uint32(StateComplete), nil
	}
	return state, nil
}

func (r *comInstance) Product() (PackageRecord, error) {
	var pkg *iSetupPackageReference
	hr, _, _ := syscall.SyscallN(r.raw.vtbl().GetProduct,
		uintptr(unsafe.Pointer(r.raw)),
		uintptr(unsafe.Pointer(&pkg)))
	if hr == eNotFound {
		return nil, nil
	}
	if hr != sOK {
		return nil, ole.NewError(hr)
	}
	if pkg == nil {
		return nil, nil
	}
	return &comPackage{raw: pkg}, nil
}

// Packages reads the instance's package references out of the SAFEARRAY
// returned by GetPackages. SafeArrayGetElement AddRefs interface
// elements, so each reference survives the array's destruction.
func (r *comInstance) Packages() ([]PackageRecord, error) {
	var sa uintptr
	hr, _, _ := syscall.SyscallN(r.raw.vtbl().GetPackages,
		uintptr(unsafe.Pointer(r.raw)),
		uintptr(unsafe.Pointer(&sa)))
	if hr != sOK {
		return nil, ole.NewError(hr)
	}
	if sa == 0 {
		return nil, nil
	}
	defer procSafeArrayDestroy.Call(sa) //nolint:errcheck

	var lower, upper int32
	if ret, _, _ := procSafeArrayGetLBound.Call(sa, 1, uintptr(unsafe.Pointer(&lower))); ret != sOK {
		return nil, ole.NewError(ret)
	}
	if ret, _, _ := procSafeArrayGetUBound.Call(sa, 1, uintptr(unsafe.Pointer(&upper))); ret != sOK {
		return nil, ole.NewError(ret)
	}

	var records []PackageRecord
	for i := lower; i <= upper; i++ {
		index := i
		var unknown *ole.IUnknown
		ret, _, _ := procSafeArrayGetElement.Call(sa,
			uintptr(unsafe.Pointer(&index)),
			uintptr(unsafe.Pointer(&unknown)))
		if ret != sOK {
			releasePackages(records)
			return nil, ole.NewError(ret)
		}
		records = append(records, &comPackage{raw: (*iSetupPackageReference)(unsafe.Pointer(unknown))})
	}
	return records, nil
}

func (r *comInstance) Release() {
	r.raw.Release()
}

func releasePackages(records []PackageRecord) {
	for _, r := range records {
		r.Release()
	}
}

// comPackage adapts ISetupPackageReference to PackageRecord.
type comPackage struct {
	raw *iSetupPackageReference
}

func (p *comPackage) ID() (string, error) {
	return comString(p.raw.vtbl().GetId, unsafe.Pointer(p.raw))
}

func (p *comPackage) Version() (string, error) {
	return comString(p.raw.vtbl().GetVersion, unsafe.Pointer(p.raw))
}

func (p *comPackage) Chip() (string, error) {
	return comString(p.raw.vtbl().GetChip, unsafe.Pointer(p.raw))
}

func (p *comPackage) Language() (string, error) {
	return comString(p.raw.vtbl().GetLanguage, unsafe.Pointer(p.raw))
}

func (p *comPackage) Branch() (string, error) {
	return comString(p.raw.vtbl().GetBranch, unsafe.Pointer(p.raw))
}

func (p *comPackage) UniqueID() (string, error) {
	return comString(p.raw.vtbl().GetUniqueId, unsafe.Pointer(p.raw))
}

func (p *comPackage) TypeTag() (string, error) {
	return comString(p.raw.vtbl().GetType, unsafe.Pointer(p.raw))
}

func (p *comPackage) IsExtension() (bool, error) {
	var b int16
	hr, _, _ := syscall.SyscallN(p.raw.vtbl().GetIsExtension,
		uintptr(unsafe.Pointer(p.raw)),
		uintptr(unsafe.Pointer(&b)))
	if hr != sOK {
		return false, ole.NewError(hr)
	}
	return b != 0, nil
}

func (p *comPackage) Release() {
	p.raw.Release()
}

// comString invokes a (BSTR*) property getter. The returned BSTR is
// owned by the caller and freed here; a null BSTR reads as "".
func comString(method uintptr, this unsafe.Pointer) (string, error) {
	var out *uint16
	hr, _, _ := syscall.SyscallN(method, uintptr(this), uintptr(unsafe.Pointer(&out)))
	if hr != sOK {
		return "", ole.NewError(hr)
	}
	if out == nil {
		return "", nil
	}
	defer procSysFreeString.Call(uintptr(unsafe.Pointer(out))) //nolint:errcheck
	return ole.BstrToString(out), nil
}

// comLocalizedString invokes a (LCID, BSTR*) property getter.
func comLocalizedString(method uintptr, this unsafe.Pointer, locale uint32) (string, error) {
	var out *uint16
	hr, _, _ := syscall.SyscallN(method, uintptr(this), uintptr(locale), uintptr(unsafe.Pointer(&out)))
	if hr != sOK {
		return "", ole.NewError(hr)
	}
	if out == nil {
		return "", nil
	}
	defer procSysFreeString.Call(uintptr(unsafe.Pointer(out))) //nolint:errcheck
	return ole.BstrToString(out), nil
}
