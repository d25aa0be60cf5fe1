package actor

import (
	"context"

	"github.com/ilpomo/open-core/errors"
	"github.com/ilpomo/open-core/serializer"
)

// emit encodes the message with the given serializer and enqueues it on the
// named manager's emit pipeline.
func (a *Actor) emit(name string, topic []byte, message any, codec serializer.Serializer) error {
	manager, err := a.Manager(name)
	if err != nil {
		return err
	}
	payload, err := codec.Encode(message)
	if err != nil {
		return errors.Wrap(err, "Actor", "emit", "encode message")
	}
	return manager.Emit(topic, payload)
}

// recv receives the next payload from the named manager and decodes it with
// the given serializer. The topic part never reaches the caller; transports
// filter on it before delivery.
func (a *Actor) recv(ctx context.Context, name string, codec serializer.Serializer) (any, error) {
	manager, err := a.Manager(name)
	if err != nil {
		return nil, err
	}
	payload, err := manager.Recv(ctx)
	if err != nil {
		return nil, err
	}
	message, err := codec.Decode(payload)
	if err != nil {
		return nil, errors.Wrap(err, "Actor", "recv", "decode message")
	}
	return message, nil
}

// EmitBytes emits a raw payload under topic through the named manager.
func (a *Actor) EmitBytes(name string, topic, payload []byte) error {
	manager, err := a.Manager(name)
	if err != nil {
		return err
	}
	return manager.Emit(topic, payload)
}

// EmitJSON emits a JSON-encoded message under topic through the named
// manager.
func (a *Actor) EmitJSON(name string, topic []byte, message any) error {
	return a.emit(name, topic, message, a.jsonCodec)
}

// EmitMsgpack emits a MessagePack-encoded message under topic through the
// named manager.
func (a *Actor) EmitMsgpack(name string, topic []byte, message any) error {
	return a.emit(name, topic, message, a.msgpackCodec)
}

// EmitNative emits a gob-encoded message under topic through the named
// manager. Both ends must be Go programs built from compatible types.
func (a *Actor) EmitNative(name string, topic []byte, message any) error {
	return a.emit(name, topic, message, a.nativeCodec)
}

// RecvBytes receives the next raw payload from the named manager.
func (a *Actor) RecvBytes(ctx context.Context, name string) ([]byte, error) {
	manager, err := a.Manager(name)
	if err != nil {
		return nil, err
	}
	return manager.Recv(ctx)
}

// RecvJSON receives the next payload from the named manager decoded as JSON.
// A malformed payload yields (nil, nil), matching the JSON serializer's
// lenient Decode.
func (a *Actor) RecvJSON(ctx context.Context, name string) (any, error) {
	return a.recv(ctx, name, a.jsonCodec)
}

// RecvMsgpack receives the next payload from the named manager decoded as
// MessagePack.
func (a *Actor) RecvMsgpack(ctx context.Context, name string) (any, error) {
	return a.recv(ctx, name, a.msgpackCodec)
}

// RecvNative receives the next payload from the named manager decoded with
// gob.
func (a *Actor) RecvNative(ctx context.Context, name string) (any, error) {
	return a.recv(ctx, name, a.nativeCodec)
}
