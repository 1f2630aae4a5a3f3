//go:build windows

package filedialog

import (
	"path/filepath"
	"unsafe"

	"golang.org/x/sys/windows"
)

const Supported = true

var (
	comdlg32             = windows.NewLazySystemDLL("comdlg32.dll")
	procGetOpenFileNameW = comdlg32.NewProc("GetOpenFileNameW")
	procCommDlgExtError  = comdlg32.NewProc("CommDlgExtendedError")
)

const (
	ofnNoChangeDir   = 0x00000008
	ofnPathMustExist = 0x00000800
	ofnFileMustExist = 0x00001000
	ofnExplorer      = 0x00080000
)

// openFileName mirrors OPENFILENAMEW.
type openFileName struct {
	structSize    uint32
	owner         uintptr
	instance      uintptr
	filter        *uint16
	customFilter  *uint16
	maxCustFilter uint32
	filterIndex   uint32
	file          *uint16
	maxFile       uint32
	fileTitle     *uint16
	maxFileTitle  uint32
	initialDir    *uint16
	title         *uint16
	flags         uint32
	fileOffset    uint16
	fileExtension uint16
	defExt        *uint16
	custData      uintptr
	hook          uintptr
	templateName  *uint16
	reserved      unsafe.Pointer
	reserved2     uint32
	flagsEx       uint32
}

func OpenFile(req Request) (string, error) {
	buf := make([]uint16, 4096)
	ofn := openFileName{
		file:    &buf[0],
		maxFile: uint32(len(buf)),
		flags:   ofnExplorer | ofnFileMustExist | ofnPathMustExist | ofnNoChangeDir,
		filter:  encodeFilters(req.Filters),
	}
	ofn.structSize = uint32(unsafe.Sizeof(ofn))

	var err error
	if req.Title != "" {
		if ofn.title, err = windows.UTF16PtrFromString(req.Title); err != nil {
			return "", err
		}
	}
	if req.Current != "" {
		if ofn.initialDir, err = windows.UTF16PtrFromString(filepath.Dir(req.Current)); err != nil {
			return "", err
		}
	}

	if ret, _, _ := procGetOpenFileNameW.Call(uintptr(unsafe.Pointer(&ofn))); ret != 0 {
		return windows.UTF16ToString(buf), nil
	}
	// zero extended error means the user closed the dialog
	if code, _, _ := procCommDlgExtError.Call(); code != 0 {
		return "", windows.Errno(code)
	}
	return "", ErrCanceled
}

// encodeFilters builds the double-NUL terminated "name\0pattern\0" list.
func encodeFilters(filters []Filter) *uint16 {
	var u16 []uint16
	for _, f := range filters {
		if f.Name == "" || f.Pattern == "" {
			continue
		}
		name, err1 := windows.UTF16FromString(f.Name)
		pattern, err2 := windows.UTF16FromString(f.Pattern)
		if err1 != nil || err2 != nil {
			continue
		}
		u16 = append(u16, name...)
		u16 = append(u16, pattern...)
	}
	if len(u16) == 0 {
		return nil
	}
	u16 = append(u16, 0)
	return &u16[0]
}
