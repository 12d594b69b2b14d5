package engine

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/neige/internal/conn"
	"github.com/BaSui01/neige/internal/ctxkeys"
	"github.com/BaSui01/neige/internal/telemetry"
	"github.com/BaSui01/neige/request"
)

const spanName = "neige.connection"

// Outcomes recorded per request.
const (
	outcomeOK    = "ok"
	outcomeError = "error"
	outcomePanic = "panic"
)

// methods 单独计数的请求方法，其余方法归入 otherMethod
var methods = map[string]struct{}{
	"GET": {}, "HEAD": {}, "POST": {}, "PUT": {}, "DELETE": {},
	"CONNECT": {}, "OPTIONS": {}, "TRACE": {}, "PATCH": {},
}

const otherMethod = "_OTHER"

// methodLabel 限制指标中方法标签的取值范围
func methodLabel(method string) string {
	if _, ok := methods[method]; ok {
		return method
	}
	return otherMethod
}

// connJob 一个连接的完整处理：解析请求头、调用 sink、关闭连接。
// 它独占 conn，直到 Run 或 Discard 返回。
type connJob struct {
	a    *acceptor
	id   string
	conn *conn.Conn
}

func newConnJob(a *acceptor, id string, c *conn.Conn) *connJob {
	return &connJob{a: a, id: id, conn: c}
}

// Run 在 worker 上执行
func (j *connJob) Run() {
	start := time.Now()
	m, inst := j.a.metrics, j.a.otel
	m.ConnectionStarted()
	defer m.ConnectionFinished()
	inst.ConnStarted(context.Background())
	defer inst.ConnEnded(context.Background())

	hc := newConn(j.id, j.conn)
	remote := j.conn.RemoteAddr().String()
	logger := j.a.logger.With(
		zap.String("conn_id", j.id),
		zap.String("remote_addr", remote),
	)

	ctx := ctxkeys.WithConnID(context.Background(), j.id)
	ctx = ctxkeys.WithRemoteAddr(ctx, remote)
	ctx, span := telemetry.Tracer().Start(ctx, spanName,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			semconv.ClientAddressKey.String(hc.RemoteAddr().Address),
			semconv.ClientPortKey.Int(int(hc.RemoteAddr().Port)),
			semconv.ServerPortKey.Int(int(hc.LocalAddr().Port)),
		),
	)
	if sc := span.SpanContext(); sc.HasTraceID() {
		ctx = ctxkeys.WithTraceID(ctx, sc.TraceID().String())
	}

	defer func() {
		hc.release()
		if err := j.conn.Close(); err != nil {
			logger.Debug("connection close failed", zap.Error(err))
		}
		span.End()
	}()

	req, err := request.Parse(j.conn)
	if err != nil {
		j.rejectHead(ctx, span, logger, hc, err)
		return
	}

	method := methodLabel(req.Method)
	span.SetAttributes(
		semconv.HTTPRequestMethodKey.String(method),
		semconv.URLPathKey.String(req.Target),
		semconv.NetworkProtocolVersionKey.String(req.Version.String()),
	)
	if method != req.Method {
		span.SetAttributes(semconv.HTTPRequestMethodOriginalKey.String(req.Method))
	}
	logger.Debug("request parsed",
		zap.String("method", req.Method),
		zap.String("target", req.Target),
		zap.String("version", req.Version.String()),
	)

	sink := j.a.srv.sink
	outcome := j.call(span, logger, func() error {
		return sink.ServeConn(ctx, req, hc)
	})
	elapsed := time.Since(start)
	m.RecordRequest(method, req.Version.String(), outcome, elapsed)
	inst.RequestServed(ctx, method, req.Version.String(), outcome, elapsed)
}

// rejectHead 处理请求头解析失败的连接
func (j *connJob) rejectHead(ctx context.Context, span trace.Span, logger *zap.Logger, hc *Conn, err error) {
	kind := request.Kind(err)
	j.a.metrics.RecordParseError(kind)
	j.a.otel.ParseError(ctx, kind)
	span.RecordError(err)
	span.SetStatus(codes.Error, kind)
	j.a.srv.reportError(&ConnError{ConnID: j.id, Op: "parse", Err: err})

	es, ok := j.a.srv.sink.(ErrorSink)
	if !ok {
		logger.Debug("request head rejected", zap.String("kind", kind), zap.Error(err))
		return
	}
	j.call(span, logger, func() error {
		return es.ServeError(ctx, err, hc)
	})
}

// call 调用一次 sink，按 panic 策略处理 panic
func (j *connJob) call(span trace.Span, logger *zap.Logger, fn func() error) (outcome string) {
	if j.a.opts.panicPolicy == PanicRecover {
		defer func() {
			if r := recover(); r != nil {
				outcome = outcomePanic
				j.a.metrics.RecordSinkFailure(outcomePanic)
				logger.Error("sink panicked", zap.Any("panic", r), zap.Stack("stack"))
				span.SetStatus(codes.Error, "sink panicked")
				j.a.srv.reportError(&ConnError{
					ConnID: j.id,
					Op:     "sink",
					Err:    fmt.Errorf("%w: %v", ErrSinkPanic, r),
				})
			}
		}()
	}

	if err := fn(); err != nil {
		j.a.metrics.RecordSinkFailure(outcomeError)
		logger.Warn("sink failed", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "sink failed")
		j.a.srv.reportError(&ConnError{ConnID: j.id, Op: "sink", Err: err})
		return outcomeError
	}
	return outcomeOK
}

// Discard 任务未执行即被丢弃时关闭连接
func (j *connJob) Discard() {
	if err := j.conn.Close(); err != nil {
		j.a.logger.Debug("discarded connection close failed",
			zap.String("conn_id", j.id), zap.Error(err))
	}
}
