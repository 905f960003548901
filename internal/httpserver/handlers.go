package httpserver

import (
	"encoding/json"
	"io"
	"net/http"

	apierrors "github.com/hedgepy/broker/internal/errors"
	"github.com/hedgepy/broker/internal/resource"
	"github.com/hedgepy/broker/internal/wire"
)

// postBody is the wire shape POST / expects: {vendor, endpoint, params}.
// Resource, if present, is the encoded <ClassName>$<handle> string produced
// by resource.Encode, matching internal/scheduler/poster.go's postBody on
// the other side of this same contract.
type postBody struct {
	Vendor   string     `json:"vendor"`
	Endpoint string     `json:"endpoint"`
	Params   postParams `json:"params"`
}

type postParams struct {
	Start      string `json:"start,omitempty"`
	End        string `json:"end,omitempty"`
	Resolution string `json:"resolution,omitempty"`
	Resource   string `json:"resource,omitempty"`
}

// postRequest decodes a request body, reifies its resource handle (if any),
// and enqueues it at normal priority, responding with its assigned corr_id.
func (h handlers) postRequest(w http.ResponseWriter, r *http.Request) {
	var body postBody
	if err := decodeJSON(r.Body, &body); err != nil {
		apierrors.WriteSimpleError(w, apierrors.ErrCodeMalformedInput, "request body is not valid JSON")
		return
	}

	start, err := wire.StrToDt(body.Params.Start, wire.TimestampLayout)
	if err != nil {
		apierrors.WriteSimpleError(w, apierrors.ErrCodeMalformedInput, "invalid start timestamp")
		return
	}
	end, err := wire.StrToDt(body.Params.End, wire.TimestampLayout)
	if err != nil {
		apierrors.WriteSimpleError(w, apierrors.ErrCodeMalformedInput, "invalid end timestamp")
		return
	}
	resolution, err := wire.StrToTd(body.Params.Resolution)
	if err != nil {
		apierrors.WriteSimpleError(w, apierrors.ErrCodeMalformedInput, "invalid resolution")
		return
	}

	var res any
	if body.Params.Resource != "" {
		decoded, err := resource.Decode(body.Params.Resource)
		if err != nil {
			apierrors.WriteSimpleError(w, apierrors.ErrCodeMalformedInput, "invalid resource handle")
			return
		}
		res = decoded
	}

	req := wire.Request{
		Vendor:   body.Vendor,
		Endpoint: body.Endpoint,
		Params: wire.RequestParams{
			Start:      start,
			End:        end,
			Resolution: resolution,
			Resource:   res,
		},
		Priority: wire.PriorityNormal,
	}

	corrID, err := h.pipe.Enqueue(req)
	if err != nil {
		code, ok := err.(apierrors.ErrorCode)
		if !ok {
			code = apierrors.ErrCodeInternalError
		}
		apierrors.WriteSimpleError(w, code, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"corr_id": corrID})
}

// pendingCounts is GET /'s body when called with no corr_id.
type pendingCounts struct {
	PendingRequests  int `json:"pending_requests"`
	PendingResponses int `json:"pending_responses"`
}

// responseRequest mirrors the Request that produced a response, echoed back
// under the "request" key per §6's {request: {vendor, endpoint, params,
// corr_id}, data: [[...], ...]} wire contract.
type responseRequest struct {
	Vendor   string      `json:"vendor"`
	Endpoint string      `json:"endpoint"`
	Params   postParams  `json:"params"`
	CorrID   wire.CorrID `json:"corr_id"`
}

// responseBody is GET /'s body when called with a corr_id whose response
// has resolved.
type responseBody struct {
	Request   responseRequest `json:"request"`
	ErrorCode string          `json:"error_code,omitempty"`
	Data      [][]any         `json:"data"`
}

// requestParams reconstructs the wire postParams shape from a resolved
// Request's already-decoded RequestParams, the inverse of postRequest's
// decode, so GET / echoes back what the client originally posted.
func requestParams(p wire.RequestParams) postParams {
	params := postParams{
		Start:      wire.DtToStr(p.Start, wire.TimestampLayout),
		End:        wire.DtToStr(p.End, wire.TimestampLayout),
		Resolution: wire.TdToStr(p.Resolution),
	}
	if r, ok := p.Resource.(resource.Resource); ok {
		params.Resource = resource.Encode(r)
	}
	return params
}

// getResponse pops the response stored for a corr_id query param, or — when
// no corr_id is given — reports the overall pending request/response
// counts, matching §4.8's two GET / forms.
func (h handlers) getResponse(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("corr_id")
	if raw == "" {
		writeJSON(w, http.StatusOK, pendingCounts{
			PendingRequests:  h.pipe.PendingCount(),
			PendingResponses: h.pipe.ResponseCount(),
		})
		return
	}

	corrID, err := wire.ParseCorrID(raw)
	if err != nil {
		apierrors.WriteSimpleError(w, apierrors.ErrCodeMalformedInput, "invalid corr_id")
		return
	}

	resp, ok := h.pipe.Pop(corrID)
	if !ok {
		http.NotFound(w, r)
		return
	}

	records, err := wire.Drain(resp.Data)
	if err != nil {
		apierrors.WriteSimpleError(w, apierrors.ErrCodeInternalError, "failed to drain response records")
		return
	}

	writeJSON(w, http.StatusOK, responseBody{
		Request: responseRequest{
			Vendor:   resp.Request.Vendor,
			Endpoint: resp.Request.Endpoint,
			Params:   requestParams(resp.Request.Params),
			CorrID:   resp.Request.CorrID,
		},
		ErrorCode: resp.ErrorCode,
		Data:      records,
	})
}

// decodeJSON decodes a JSON request body into dest, closing the reader.
func decodeJSON(r io.ReadCloser, dest any) error {
	defer r.Close()
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}
