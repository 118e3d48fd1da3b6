package usecases

import (
	"context"
	"time"

	"github.com/samirrijal/mapart/internal/core/domain"
	"github.com/samirrijal/mapart/internal/core/ports"
	"github.com/samirrijal/mapart/internal/pkg/logging"
	"github.com/samirrijal/mapart/internal/pkg/metrics"
)

// User-visible notification texts.
const (
	MsgAreaSelected       = "Area selected! You can now export your design."
	MsgDefineAreaFirst    = "Please define an area first"
	MsgExported           = "Design exported successfully!"
	MsgLocationFound      = "Location found!"
	MsgLocationFailed     = "Could not get your location"
	MsgGeolocationMissing = "Geolocation is not supported"
	MsgAddressSoon        = "Address search coming soon!"
	MsgAddressNotFound    = "Could not find that address"
	MsgExportFailedPrefix = "Export failed: "
)

// notify delivers a notification best-effort. Delivery problems never change
// the outcome of the operation that raised it.
func notify(ctx context.Context, n ports.Notifier, sessionID string, level domain.NotificationLevel, msg string) {
	if n == nil {
		return
	}
	metrics.Notifications.WithLabelValues(string(level)).Inc()
	err := n.Notify(ctx, domain.Notification{
		SessionID: sessionID,
		Level:     level,
		Message:   msg,
		Time:      time.Now().UTC(),
	})
	if err != nil {
		logging.LoggerFromContext(ctx).Warn("notification not delivered",
			"session_id", sessionID, "level", level, "error", err)
	}
}
