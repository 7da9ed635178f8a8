package x11

import (
	"fmt"

	"github.com/BurntSushi/xgbutil/xprop"
)

// Root window properties read by status bars (e.g. polybar or i3blocks
// scripts calling xprop -root).
const (
	StatusLabelProperty = "_WINTOGGLE_STATUS"
	StatusPopupProperty = "_WINTOGGLE_POPUP"
)

// SetStatus publishes the button label and whether a click opens the popup.
func (c *Connection) SetStatus(label string, popup bool) error {
	if err := xprop.ChangeProp(c.XUtil, c.Root, 8, StatusLabelProperty, "UTF8_STRING", []byte(label)); err != nil {
		return fmt.Errorf("set %s: %w", StatusLabelProperty, err)
	}
	var flag uint
	if popup {
		flag = 1
	}
	if err := xprop.ChangeProp32(c.XUtil, c.Root, StatusPopupProperty, "CARDINAL", flag); err != nil {
		return fmt.Errorf("set %s: %w", StatusPopupProperty, err)
	}
	return nil
}
