package leadhandler

import "net/http"

// Health answers liveness probes with {"ok":true}.
func Health(w http.ResponseWriter, _ *http.Request) {
	WriteOK(w)
}
