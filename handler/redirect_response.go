package handler

import "net/http"

type redirectResponse struct {
	url    string
	status int
}

func (rr redirectResponse) Render(w http.ResponseWriter, r *http.Request) error {
	http.Redirect(w, r, rr.url, rr.status)
	return nil
}

// Redirect responds 302 Found to url.
func Redirect(url string) Response {
	return redirectResponse{url: url, status: http.StatusFound}
}
