package actuator

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

// AttachAdminRoutes mounts debugging endpoints for the actuator bridge on the
// given mux. These are for local operators only and are not part of the
// public API surface.
func (b *Bridge) AttachAdminRoutes(mux *http.ServeMux) {
	// POST a raw command to the device and report its acknowledgment.
	mux.HandleFunc("/debug/actuator/send", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		command := strings.TrimSpace(r.FormValue("command"))
		if command == "" {
			http.Error(w, "Missing command", http.StatusBadRequest)
			return
		}
		ack, err := b.Send(r.Context(), command)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to send command: %v", err), http.StatusInternalServerError)
			return
		}
		io.WriteString(w, fmt.Sprintf("Sent %q, device acknowledged %q", command, ack))
	})

	// Server-Sent Events tail of raw lines coming from the device.
	mux.HandleFunc("/debug/actuator/tail", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		id, c := b.Subscribe()
		defer b.Unsubscribe(id)

		w.Write([]byte(": ping\n\n"))
		w.(http.Flusher).Flush()

		for {
			select {
			case payload, ok := <-c:
				if !ok {
					return
				}
				if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
					return
				}
				w.(http.Flusher).Flush()
			case <-r.Context().Done():
				return
			}
		}
	})
}
