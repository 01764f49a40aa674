//go:build windows

package platform

import (
	"errors"
	"sync"

	"golang.zx2c4.com/wireguard/windows/tunnel/winipcfg"

	"github.com/wesleywu/winroute/internal/logger"
	"github.com/wesleywu/winroute/internal/routing/entities"
	"github.com/wesleywu/winroute/internal/routing/types"
)

// WindowsNotifier wraps a NotifyRouteChange2 registration
type WindowsNotifier struct {
	mutex    sync.Mutex
	callback *winipcfg.RouteChangeCallback
	logger   *logger.Logger
}

func (n *WindowsNotifier) Register(family entities.Family, signal func()) error {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	if n.callback != nil {
		return types.NewError(types.RouteErrAlreadyExists, "notify", "", errors.New("already registered"))
	}

	cb, err := winipcfg.RegisterRouteChangeCallback(func(kind winipcfg.MibNotificationType, row *winipcfg.MibIPforwardRow2) {
		if kind == winipcfg.MibInitialNotification {
			return
		}
		if row != nil && family != entities.FamilyAll && !family.Contains(row.DestinationPrefix.Prefix().Addr()) {
			return
		}
		signal()
	})
	if err != nil {
		return win32Error("notify", "", err)
	}

	n.callback = cb
	n.logger.Debug("route change notification registered", "family", family.String())
	return nil
}

func (n *WindowsNotifier) Unregister() error {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	if n.callback == nil {
		return nil
	}
	err := n.callback.Unregister()
	n.callback = nil
	if err != nil {
		return win32Error("notify", "", err)
	}
	n.logger.Debug("route change notification cancelled")
	return nil
}
