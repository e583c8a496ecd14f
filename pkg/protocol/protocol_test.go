package protocol

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeMessageJSON(t *testing.T) {
	msg, err := DecodeMessage(NewJSONCodec(),
		[]byte(`{"t":0,"ref":"7","event":"change","payload":{"field":"email","value":"a@b.co"},"ts":1}`))
	require.NoError(t, err)
	assert.Equal(t, MsgEvent, msg.Type)
	assert.Equal(t, "7", msg.Ref)
	assert.Equal(t, "change", msg.Event)
	assert.Equal(t, "email", msg.Payload["field"])
	assert.Equal(t, int64(1), msg.Timestamp)
}

func TestDecodeMessageMsgPack(t *testing.T) {
	codec := NewMsgPackCodec()
	data, err := codec.Encode(NewEvent("goto", map[string]any{"step": 3}).WithRef("r1"))
	require.NoError(t, err)

	msg, err := DecodeMessage(codec, data)
	require.NoError(t, err)
	assert.Equal(t, "goto", msg.Event)
	assert.Equal(t, "r1", msg.Ref)
	assert.EqualValues(t, 3, msg.Payload["step"])
}

func TestDecodeMessageRejects(t *testing.T) {
	codec := NewJSONCodec()
	for name, data := range map[string]string{
		"empty":        ``,
		"malformed":    `{"t":0,`,
		"no event":     `{"t":0,"ref":"1"}`,
		"unknown type": `{"t":9,"event":"change"}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeMessage(codec, []byte(data))
			assert.ErrorIs(t, err, ErrInvalidMessage)
		})
	}

	msg, err := DecodeMessage(codec, []byte(`{"t":1}`))
	require.NoError(t, err, "heartbeats need no event")
	assert.Equal(t, MsgHeartbeat, msg.Type)
}

func TestEncodeReplyOmitsEmptyFields(t *testing.T) {
	data, err := EncodeReply(NewJSONCodec(), &Reply{Ref: "1", HTML: "<p>x</p>"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ref":"1","html":"<p>x</p>"}`, string(data))

	data, err = EncodeReply(NewJSONCodec(), ErrorReply("2", "bad"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"ref":"2","error":"bad"}`, string(data))
}

func TestCodecRegistry(t *testing.T) {
	r := NewCodecRegistry()
	assert.Equal(t, "json", r.Default().Name())

	c, ok := r.Get("msgpack")
	require.True(t, ok)
	assert.Equal(t, "application/msgpack", c.ContentType())

	require.NoError(t, r.SetDefault("msgpack"))
	assert.Equal(t, "msgpack", r.Default().Name())
	assert.ErrorIs(t, r.SetDefault("phoenix"), ErrUnknownCodec)
}

func TestDispatcher(t *testing.T) {
	d := NewDispatcher()

	reply, err := d.Dispatch(context.Background(), &Message{Type: MsgHeartbeat, Ref: "h1"})
	require.NoError(t, err)
	assert.Equal(t, &Reply{Ref: "h1"}, reply)

	d.RegisterFunc(MsgEvent, func(ctx context.Context, msg *Message) (*Reply, error) {
		if msg.Event == "boom" {
			panic("kaboom")
		}
		return &Reply{HTML: msg.Event}, nil
	})

	reply, err = d.Dispatch(context.Background(), NewEvent("save", nil).WithRef("e1"))
	require.NoError(t, err)
	assert.Equal(t, "e1", reply.Ref, "ref is echoed")
	assert.Equal(t, "save", reply.HTML)

	_, err = d.Dispatch(context.Background(), NewEvent("boom", nil))
	assert.True(t, errors.Is(err, ErrHandlerPanic))

	_, err = d.Dispatch(context.Background(), &Message{Type: 42})
	assert.ErrorIs(t, err, ErrHandlerNotFound)
}
