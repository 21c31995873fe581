package infrastructure

import (
	"go.opentelemetry.io/otel/attribute"
)

const (
	workerKey   = "worker"
	queueKey    = "queue"
	exchangeKey = "exchange"
	statusKey   = "status"
	stateKey    = "state"
	delayedKey  = "delayed"
	serviceKey  = "downstream.service"
	actionKey   = "action"
)

func WorkerAttr(worker string) attribute.KeyValue {
	return attribute.String(workerKey, worker)
}

func QueueAttr(queue string) attribute.KeyValue {
	return attribute.String(queueKey, queue)
}

func ExchangeAttr(exchange string) attribute.KeyValue {
	return attribute.String(exchangeKey, exchange)
}

func StatusAttr(status string) attribute.KeyValue {
	return attribute.String(statusKey, status)
}

func StateAttr(state string) attribute.KeyValue {
	return attribute.String(stateKey, state)
}

func DelayedAttr(delayed bool) attribute.KeyValue {
	return attribute.Bool(delayedKey, delayed)
}

func ServiceAttr(service string) attribute.KeyValue {
	return attribute.String(serviceKey, service)
}

func ActionAttr(action string) attribute.KeyValue {
	return attribute.String(actionKey, action)
}

func statusOf(success bool) string {
	if success {
		return "success"
	}

	return "error"
}
