// SPDX-License-Identifier: Apache-2.0

package instrumentation

import (
	"context"
	"fmt"
	"time"

	"github.com/xataio/csv2chain/pkg/chain"
	"github.com/xataio/csv2chain/pkg/conversion"
	"github.com/xataio/csv2chain/pkg/otel"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type Client struct {
	inner   chain.Client
	tracer  trace.Tracer
	meter   metric.Meter
	metrics *metrics
}

type metrics struct {
	calls       metric.Int64Counter
	callLatency metric.Int64Histogram
}

const functionAttributeKey = "function"

func NewClient(c chain.Client, instrumentation *otel.Instrumentation) (chain.Client, error) {
	if !instrumentation.IsEnabled() {
		return c, nil
	}

	client := &Client{
		inner:   c,
		tracer:  instrumentation.Tracer,
		meter:   instrumentation.Meter,
		metrics: &metrics{},
	}

	if err := client.initMetrics(); err != nil {
		return nil, fmt.Errorf("initialising chain client metrics: %w", err)
	}

	return client, nil
}

func (i *Client) Accounts(ctx context.Context) (accounts []string, err error) {
	ctx, span := otel.StartSpan(ctx, i.tracer, "chain.Accounts")
	defer func() { otel.CloseSpan(span, err) }()

	return i.inner.Accounts(ctx)
}

func (i *Client) Call(ctx context.Context, req *chain.CallRequest) (err error) {
	fnAttribute := attribute.String(functionAttributeKey, req.Function)
	ctx, span := otel.StartSpan(ctx, i.tracer, "chain.Call", trace.WithAttributes(fnAttribute))
	defer func() { otel.CloseSpan(span, err) }()

	if i.meter != nil {
		startTime := time.Now()
		defer func() {
			attrs := metric.WithAttributes(fnAttribute, otel.ResultAttribute(err))
			i.metrics.calls.Add(ctx, 1, attrs)
			i.metrics.callLatency.Record(ctx, time.Since(startTime).Milliseconds(), attrs)
		}()
	}

	return i.inner.Call(ctx, req)
}

func (i *Client) Utilities() conversion.Utilities {
	return i.inner.Utilities()
}

func (i *Client) initMetrics() error {
	if i.meter == nil {
		return nil
	}

	var err error
	i.metrics.calls, err = i.meter.Int64Counter("csv2chain.chain.calls",
		metric.WithUnit("calls"),
		metric.WithDescription("Number of function calls submitted to the chain"))
	if err != nil {
		return err
	}

	i.metrics.callLatency, err = i.meter.Int64Histogram("csv2chain.chain.call.latency",
		metric.WithUnit("ms"),
		metric.WithDescription("Distribution of the time taken for a function call to be confirmed"))
	if err != nil {
		return err
	}

	return nil
}
