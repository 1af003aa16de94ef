package dashboard

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rentaldesk/rentaldesk/internal/events"
)

const (
	streamBuffer    = 16
	streamKeepalive = 20 * time.Second
)

// stream forwards bus notifications for this session and role to the page
// as Server-Sent Events. Notifications caused by the page itself are
// skipped. The subscription closes with the request.
func (h *Handler) stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusNotImplemented)
		return
	}
	// Lift the server write deadline; when a wrapper hides it the page
	// reconnects after the deadline instead.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debug("stream write deadline", slog.Any("error", err))
	}
	role, sess := h.requestScope(r)
	ctx := r.Context()
	sub := h.bus.SubscribeContext(ctx, events.Filter{
		Session:    sess.ID,
		Role:       role,
		SkipOrigin: clientID(r),
	}, streamBuffer)
	defer sub.Close()

	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-store")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "retry: 3000\n\n")
	flusher.Flush()

	ticker := time.NewTicker(streamKeepalive)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case n, ok := <-sub.C():
			if !ok {
				return
			}
			payload, err := n.Encode()
			if err != nil {
				h.logger.Warn("encode notification", slog.String("kind", n.Kind.String()), slog.Any("error", err))
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", n.Kind, payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
