//go:build windows

package diag

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
)

// withWMI runs action against a WMI namespace on a COM-initialized OS
// thread. WbemScripting wants an apartment-threaded context.
func withWMI(namespace string, action func(service *ole.IDispatch) error) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED); err != nil {
		return fmt.Errorf("failed to initialize COM: %w", err)
	}
	defer ole.CoUninitialize()

	unknown, err := oleutil.CreateObject("WbemScripting.SWbemLocator")
	if err != nil {
		return fmt.Errorf("failed to create WMI locator: %w", err)
	}
	defer unknown.Release()

	locator, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		return fmt.Errorf("failed to query WMI locator: %w", err)
	}
	defer locator.Release()

	serviceVar, err := oleutil.CallMethod(locator, "ConnectServer", ".", namespace)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", namespace, err)
	}
	defer serviceVar.Clear()

	service := serviceVar.ToIDispatch()
	if service == nil {
		return fmt.Errorf("failed to connect to %s: nil service", namespace)
	}
	return action(service)
}

func wmiQuery(service *ole.IDispatch, query string, each func(item *ole.IDispatch)) error {
	resultVar, err := oleutil.CallMethod(service, "ExecQuery", query)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	defer resultVar.Clear()

	result := resultVar.ToIDispatch()
	if result == nil {
		return fmt.Errorf("query returned nil result")
	}
	defer result.Release()

	countVar, err := oleutil.GetProperty(result, "Count")
	if err != nil {
		return fmt.Errorf("result count failed: %w", err)
	}
	defer countVar.Clear()

	for i := 0; i < int(countVar.Val); i++ {
		itemVar, err := oleutil.CallMethod(result, "ItemIndex", i)
		if err != nil {
			continue
		}
		item := itemVar.ToIDispatch()
		itemVar.Clear()
		if item == nil {
			continue
		}
		each(item)
		item.Release()
	}
	return nil
}

func stringProp(item *ole.IDispatch, name string) string {
	v, err := oleutil.GetProperty(item, name)
	if err != nil {
		return ""
	}
	defer v.Clear()
	s, _ := v.Value().(string)
	return s
}

func intProp(item *ole.IDispatch, name string) int64 {
	v, err := oleutil.GetProperty(item, name)
	if err != nil {
		return 0
	}
	defer v.Clear()
	switch n := v.Value().(type) {
	case int32:
		return int64(n)
	case int64:
		return n
	case uint32:
		return int64(n)
	case uint64:
		return int64(n)
	default:
		return 0
	}
}

func collectGPUs() []GPUInfo {
	var gpus []GPUInfo
	err := withWMI(`root\cimv2`, func(service *ole.IDispatch) error {
		return wmiQuery(service,
			"SELECT Name, DriverVersion, AdapterRAM, Status FROM Win32_VideoController",
			func(item *ole.IDispatch) {
				g := GPUInfo{
					Name:          stringProp(item, "Name"),
					DriverVersion: stringProp(item, "DriverVersion"),
					Status:        stringProp(item, "Status"),
				}
				// AdapterRAM is a uint32 and caps at 4GB; still useful
				// for telling integrated from discrete parts.
				if ram := intProp(item, "AdapterRAM"); ram > 0 {
					g.VRAMMB = uint64(ram) / 1024 / 1024
				}
				gpus = append(gpus, g)
			})
	})
	if err != nil {
		log.Debug("video controller query failed", "error", err)
	}
	return gpus
}

// monitorNames reads EDID friendly names from WmiMonitorID. The name
// arrives as an array of character codes, zero-terminated.
func monitorNames() []string {
	var names []string
	err := withWMI(`root\wmi`, func(service *ole.IDispatch) error {
		return wmiQuery(service,
			"SELECT UserFriendlyName FROM WmiMonitorID",
			func(item *ole.IDispatch) {
				v, err := oleutil.GetProperty(item, "UserFriendlyName")
				if err != nil {
					return
				}
				defer v.Clear()

				arr := v.ToArray()
				if arr == nil {
					return
				}

				var sb strings.Builder
				for _, raw := range arr.ToValueArray() {
					var code int64
					switch n := raw.(type) {
					case int32:
						code = int64(n)
					case int64:
						code = n
					case uint16:
						code = int64(n)
					}
					if code == 0 {
						break
					}
					sb.WriteRune(rune(code))
				}
				if name := strings.TrimSpace(sb.String()); name != "" {
					names = append(names, name)
				}
			})
	})
	if err != nil {
		log.Debug("monitor name query failed", "error", err)
	}
	return names
}
