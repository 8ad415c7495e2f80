// SPDX-License-Identifier: MIT

package api

import (
	"net/http"
)

// indexPage is a minimal landing page pointing at the API. The daemon ships
// no web UI; clients talk to /api directly.
const indexPage = `<!DOCTYPE html>
<html>
<head><title>cliptrim</title></head>
<body>
<h1>cliptrim</h1>
<p>Video segment trim service. Endpoints:</p>
<ul>
<li>GET /health</li>
<li>POST /api/upload (multipart, field "file")</li>
<li>GET /api/videos</li>
<li>POST /api/trim</li>
<li>GET /api/stream/uploads/{filename}</li>
<li>GET /api/stream/output/{filename}</li>
<li>GET /api/output/{filename}</li>
<li>DELETE /api/videos/{filename}</li>
<li>DELETE /api/output/{filename}</li>
</ul>
</body>
</html>
`

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexPage))
}
