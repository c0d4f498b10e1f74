package receiver

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	collogspb "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"github.com/nixlim/mission-control/internal/config"
)

const maxRequestBytes = 4 << 20

// HTTPReceiver accepts OTLP/HTTP log exports and serves /metrics and
// /healthz on the same listener.
type HTTPReceiver struct {
	intake

	cfg      config.ReceiverConfig
	listener net.Listener
	server   *http.Server
}

func NewHTTPReceiver(cfg config.ReceiverConfig, reporter Reporter, opts ...Option) *HTTPReceiver {
	return &HTTPReceiver{
		cfg:    cfg,
		intake: newIntake(reporter, "receiver-http", opts),
	}
}

// Routes returns the receiver's router.
func (r *HTTPReceiver) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)

	router.Post("/v1/logs", r.handleLogs)
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "ok\n")
	})
	router.Method(http.MethodGet, "/metrics", r.metrics.Handler())
	return router
}

func (r *HTTPReceiver) Start(ctx context.Context) error {
	addr := net.JoinHostPort(r.cfg.Bind, fmt.Sprint(r.cfg.HTTPPort))
	lis, err := listen(ctx, addr, r.cfg.HTTPPort)
	if err != nil {
		return err
	}
	r.serve(lis)
	r.log.Info().Str("addr", lis.Addr().String()).Msg("http receiver listening")
	return nil
}

func (r *HTTPReceiver) serve(lis net.Listener) {
	r.listener = lis
	r.server = &http.Server{
		Handler:           r.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}

	go func() {
		if err := r.server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.log.Error().Err(err).Msg("http server stopped")
		}
	}()
}

func (r *HTTPReceiver) Addr() net.Addr {
	if r.listener == nil {
		return nil
	}
	return r.listener.Addr()
}

func (r *HTTPReceiver) Stop() {
	if r.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = r.server.Shutdown(ctx)
}

func isJSON(req *http.Request) bool {
	mt, _, err := mime.ParseMediaType(req.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

func (r *HTTPReceiver) handleLogs(w http.ResponseWriter, req *http.Request) {
	var body io.Reader = http.MaxBytesReader(w, req.Body, maxRequestBytes)
	if req.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(body)
		if err != nil {
			http.Error(w, "invalid gzip body", http.StatusBadRequest)
			return
		}
		defer gz.Close()
		body = io.LimitReader(gz, maxRequestBytes)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		http.Error(w, "reading body failed", http.StatusBadRequest)
		return
	}

	asJSON := isJSON(req)
	var export collogspb.ExportLogsServiceRequest
	if asJSON {
		err = protojson.Unmarshal(data, &export)
	} else {
		err = proto.Unmarshal(data, &export)
	}
	if err != nil {
		r.log.Debug().Err(err).Msg("rejecting malformed OTLP payload")
		http.Error(w, "invalid OTLP payload", http.StatusBadRequest)
		return
	}

	r.process(req.Context(), "http", export.GetResourceLogs())

	resp := &collogspb.ExportLogsServiceResponse{}
	var out []byte
	if asJSON {
		w.Header().Set("Content-Type", "application/json")
		out, err = protojson.Marshal(resp)
	} else {
		w.Header().Set("Content-Type", "application/x-protobuf")
		out, err = proto.Marshal(resp)
	}
	if err != nil {
		http.Error(w, "encoding response failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}
