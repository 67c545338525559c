// Package tracing 初始化 OpenTelemetry 链路追踪
package tracing

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/formabot/backend/internal/infrastructure/config"
	"github.com/formabot/backend/internal/infrastructure/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Provider 全局 TracerProvider 的持有者
// 未启用时为空实现，otel 全局默认的 noop tracer 生效
type Provider struct {
	tp *sdktrace.TracerProvider
}

// New 按配置创建 TracerProvider 并设为全局，span 以 JSON 写入 w
func New(cfg *config.TracingConfig, w io.Writer) (*Provider, error) {
	if !cfg.Enabled {
		return &Provider{}, nil
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, fmt.Errorf("create exporter: %w", err)
	}

	res := resource.NewWithAttributes(
		"",
		attribute.String("service.name", cfg.ServiceName),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)

	return &Provider{tp: tp}, nil
}

// ProvideTracing 提供链路追踪，返回关闭函数（刷新未导出的 span）
func ProvideTracing(cfg *config.TracingConfig) (*Provider, func(), error) {
	p, err := New(cfg, os.Stdout)
	if err != nil {
		return nil, nil, err
	}

	if p.Enabled() {
		log.NewModuleLogger("tracing", "provider").Info("Tracing enabled", "service", cfg.ServiceName)
	}

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = p.Shutdown(ctx)
	}
	return p, cleanup, nil
}

// Enabled 是否启用
func (p *Provider) Enabled() bool {
	return p.tp != nil
}

// Shutdown 刷新并关闭
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.tp == nil {
		return nil
	}
	return p.tp.Shutdown(ctx)
}
