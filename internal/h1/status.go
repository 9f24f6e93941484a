package h1

import "strconv"

// statusText holds reason phrases for the status codes this core ever
// emits itself; everything else (a status chosen by the upstream handler)
// still renders correctly without a phrase, matching the source's
// unknown-code fallback.
var statusText = map[int]string{
	200: "OK",
	201: "Created",
	204: "No Content",
	301: "Moved Permanently",
	302: "Found",
	304: "Not Modified",
	400: "Bad Request",
	403: "Forbidden",
	404: "Not Found",
	408: "Request Timeout",
	411: "Length Required",
	413: "Payload Too Large",
	431: "Request Header Fields Too Large",
	500: "Internal Server Error",
	501: "Not Implemented",
	505: "HTTP Version Not Supported",
}

// statusLine renders "<version> <code>[ <reason>]\r\n". An unrecognized
// code is rendered numeric-only, matching the source's preallocated
// per-group tables falling back to a bare number outside their range.
func statusLine(version string, code int) string {
	reason, ok := statusText[code]
	if !ok {
		return version + " " + strconv.Itoa(code) + "\r\n"
	}
	return version + " " + strconv.Itoa(code) + " " + reason + "\r\n"
}
