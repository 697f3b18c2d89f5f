package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"xhub-signature/internal/common/errors"
	"xhub-signature/internal/common/logging"
	"xhub-signature/internal/signature"
)

// Rejection messages and code returned to webhook senders.
const (
	MismatchSignature = "X-Hub-Signature(-256) does not match sha1/sha256 hmac of the request body using the shared key"
	MissingSignature  = "X-Hub-Signature(-256) is not present"
	ReplayedDelivery  = "delivery has already been processed"
	GuardUnavailable  = "delivery guard is unavailable"
	BodyTooLarge      = "request body exceeds the size limit"
	ErrorCode         = "E_XHUB_WEBHOOK"
)

// HeaderDelivery carries the sender's unique delivery ID.
const HeaderDelivery = "X-GitHub-Delivery"

// DefaultMaxBodyBytes matches the largest payload GitHub will deliver.
const DefaultMaxBodyBytes int64 = 25 << 20

// DeliveryGuard remembers delivery IDs. MarkDelivery returns true when id
// has not been seen within ttl. ForgetDelivery releases an id whose
// processing failed so the sender's retry is accepted.
type DeliveryGuard interface {
	MarkDelivery(ctx context.Context, id string, ttl time.Duration) (bool, error)
	ForgetDelivery(ctx context.Context, id string) error
}

// CodeBodyTooLarge marks a Result whose body exceeded MaxBodyBytes.
const CodeBodyTooLarge = "body_too_large"

// ErrBodyTooLarge matches the Result error of an oversize body.
var ErrBodyTooLarge = &errors.AppError{Type: errors.ErrTypeValidation, Code: CodeBodyTooLarge}

// Result is the outcome of ReadPayload, stored in the request context.
type Result struct {
	// Present is true when a signature header was found
	Present bool
	// Header is the value that was verified
	Header string
	// Valid is true only when the signature matched the body
	Valid bool
	// Err is set when the header was rejected or the body could not be read
	Err error
}

type resultKey struct{}

// ResultFromContext returns the Result stored by ReadPayload.
func ResultFromContext(ctx context.Context) (Result, bool) {
	res, ok := ctx.Value(resultKey{}).(Result)
	return res, ok
}

// XHubOptions configures XHub.
type XHubOptions struct {
	// AllowUnsignedGet lets GET requests without a signature header through
	AllowUnsignedGet bool
	// Guard, when set, rejects replayed delivery IDs after verification
	Guard DeliveryGuard
	// DeliveryTTL is passed to Guard (default 24h)
	DeliveryTTL time.Duration
	// MaxBodyBytes caps the body read for verification (default 25MB)
	MaxBodyBytes int64
	Logger       logging.Logger
}

// XHub verifies X-Hub-Signature headers on incoming requests.
type XHub struct {
	engine *signature.Engine
	opts   XHubOptions
	logger logging.Logger
}

// NewXHub creates the middleware around engine.
func NewXHub(engine *signature.Engine, opts XHubOptions) *XHub {
	if opts.Logger == nil {
		opts.Logger = logging.GetGlobalLogger()
	}
	if opts.DeliveryTTL <= 0 {
		opts.DeliveryTTL = 24 * time.Hour
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}

	return &XHub{
		engine: engine,
		opts:   opts,
		logger: opts.Logger,
	}
}

// Middleware chains ReadPayload and VerifyPayload.
func (x *XHub) Middleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return x.ReadPayload(x.VerifyPayload(next))
	}
}

// SignatureHeader returns the signature header of r. X-Hub-Signature-256
// is preferred over X-Hub-Signature.
func SignatureHeader(r *http.Request) string {
	if sig := r.Header.Get(signature.HeaderSHA256); sig != "" {
		return sig
	}
	return r.Header.Get(signature.HeaderSHA1)
}

// ReadPayload verifies the raw body against the signature header and stores
// a Result in the request context. It never rejects. The body is restored so
// downstream handlers can parse it.
func (x *XHub) ReadPayload(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := SignatureHeader(r)
		if header == "" {
			next.ServeHTTP(w, withResult(r, Result{}))
			return
		}

		res := Result{Present: true, Header: header}
		logger := x.logger.WithContext(r.Context())

		body, err := preserveRequestBody(w, r, x.opts.MaxBodyBytes)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if stderrors.As(err, &tooLarge) {
				res.Err = errors.ValidationError(BodyTooLarge).WithCode(CodeBodyTooLarge).WithCause(err)
				logger.Warn("Webhook body over size limit",
					logging.Field{Key: "limit_bytes", Value: tooLarge.Limit},
				)
			} else {
				res.Err = errors.InternalError("failed to read request body", err)
				logger.Error("Failed to read webhook body", err)
			}
			next.ServeHTTP(w, withResult(r, res))
			return
		}

		res.Valid, res.Err = x.engine.Verify(header, string(body), "")
		if res.Err != nil {
			logger.Warn("Rejected signature header",
				logging.Err(res.Err),
				logging.String("code", errors.GetCode(res.Err)),
			)
		} else if !res.Valid {
			logger.Warn("Signature mismatch", logging.Int("body_bytes", len(body)))
		} else {
			logger.Debug("Signature verified", logging.Int("body_bytes", len(body)))
		}

		next.ServeHTTP(w, withResult(r, res))
	})
}

// VerifyPayload rejects requests whose Result is missing or invalid. It must
// run after ReadPayload.
func (x *XHub) VerifyPayload(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, ok := ResultFromContext(r.Context())
		if !ok || !res.Present {
			if x.opts.AllowUnsignedGet && r.Method == http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}
			writeRejection(w, http.StatusUnauthorized, MissingSignature)
			return
		}

		if !res.Valid {
			if stderrors.Is(res.Err, ErrBodyTooLarge) {
				writeRejection(w, http.StatusRequestEntityTooLarge, BodyTooLarge)
				return
			}
			writeRejection(w, http.StatusUnauthorized, MismatchSignature)
			return
		}

		id := r.Header.Get(HeaderDelivery)
		if x.opts.Guard == nil || id == "" {
			next.ServeHTTP(w, r)
			return
		}

		first, err := x.opts.Guard.MarkDelivery(r.Context(), id, x.opts.DeliveryTTL)
		if err != nil {
			x.logger.Error("Delivery guard failed", err, logging.String("delivery_id", id))
			writeRejection(w, http.StatusServiceUnavailable, GuardUnavailable)
			return
		}
		if !first {
			x.logger.Warn("Replayed delivery rejected", logging.String("delivery_id", id))
			writeRejection(w, http.StatusConflict, ReplayedDelivery)
			return
		}

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r.WithContext(context.WithValue(r.Context(), logging.DeliveryIDKey, id)))

		// A failed handler must not burn the id, or the sender's retry is refused.
		if wrapped.statusCode >= http.StatusInternalServerError {
			if err := x.opts.Guard.ForgetDelivery(context.WithoutCancel(r.Context()), id); err != nil {
				x.logger.Error("Failed to release delivery", err, logging.String("delivery_id", id))
				return
			}
			x.logger.Info("Released delivery after handler failure",
				logging.String("delivery_id", id),
				logging.Int("status", wrapped.statusCode),
			)
		}
	})
}

func withResult(r *http.Request, res Result) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), resultKey{}, res))
}

// preserveRequestBody reads the body and replaces it with a fresh reader.
func preserveRequestBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		return nil, err
	}

	r.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}

type rejection struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeRejection(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(rejection{Error: msg, Code: ErrorCode})
}
