//go:build !windows

package platform

import (
	"fmt"
	"runtime"

	"github.com/wesleywu/winroute/internal/logger"
	"github.com/wesleywu/winroute/internal/routing/types"
)

// NewNative fails outside Windows; there is no cross-platform backend.
func NewNative(_ *logger.Logger) (Table, Notifier, error) {
	return nil, nil, types.NewError(types.RouteErrUnsupported, "init", "",
		fmt.Errorf("%s is not supported, windows only", runtime.GOOS))
}
