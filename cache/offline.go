package cache

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/fwojciec/mtgrules"
)

var offlineTemplate = template.Must(template.New("offline").Parse(`<!DOCTYPE html>
<html>
<head>
  <title>MTG Rules - Offline</title>
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <style>
    body { font-family: sans-serif; text-align: center; padding: 50px; }
    .offline { color: #666; }
  </style>
</head>
<body>
  <h1>MTG Rules</h1>
  <p class="offline">You're currently offline. Some content may not be available.</p>
  <p><a href="{{.}}">Go to Home</a></p>
</body>
</html>
`))

// OfflinePage returns the page served for HTML navigations when both the
// cache and the network miss.
func OfflinePage(basePath string) (*mtgrules.Response, error) {
	var buf bytes.Buffer
	if err := offlineTemplate.Execute(&buf, basePath); err != nil {
		return nil, err
	}
	return &mtgrules.Response{
		Status: http.StatusOK,
		Type:   mtgrules.ResponseBasic,
		Header: http.Header{"Content-Type": []string{"text/html; charset=utf-8"}},
		Body:   buf.Bytes(),
	}, nil
}
