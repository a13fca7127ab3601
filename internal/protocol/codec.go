package protocol

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ronaldjose/terrastore/internal/common"
)

// maxFrameSize bounds a single framed message. Documents are validated at
// ingress; anything larger than this is a protocol violation.
const maxFrameSize = 64 << 20

// Reply status bytes.
const (
	statusOK    byte = 0x00
	statusError byte = 0x01
)

// WriteCommand frames and writes one command.
func WriteCommand(w io.Writer, cmd Command) error {
	body, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("encode command: %w", err)
	}
	return writeFrame(w, byte(cmd.Tag()), body)
}

// ReadCommand reads one framed command.
func ReadCommand(r io.Reader) (Command, error) {
	tag, body, err := readFrame(r)
	if err != nil {
		return nil, err
	}
	cmd, err := newCommand(Tag(tag))
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(body, cmd); err != nil {
		return nil, fmt.Errorf("decode command 0x%02x: %w", tag, err)
	}
	return cmd, nil
}

// WriteReply frames and writes a successful reply.
func WriteReply(w io.Writer, result *Result) error {
	body, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode reply: %w", err)
	}
	return writeFrame(w, statusOK, body)
}

// WriteErrorReply frames and writes a failure reply.
func WriteErrorReply(w io.Writer, msg common.ErrorMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode error reply: %w", err)
	}
	return writeFrame(w, statusError, body)
}

// ReadReply reads one framed reply. A failure reply surfaces as a non-nil
// ErrorMessage with a nil Result.
func ReadReply(r io.Reader) (*Result, *common.ErrorMessage, error) {
	status, body, err := readFrame(r)
	if err != nil {
		return nil, nil, err
	}
	switch status {
	case statusOK:
		var result Result
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, nil, fmt.Errorf("decode reply: %w", err)
		}
		return &result, nil, nil
	case statusError:
		var msg common.ErrorMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			return nil, nil, fmt.Errorf("decode error reply: %w", err)
		}
		return nil, &msg, nil
	default:
		return nil, nil, fmt.Errorf("unknown reply status 0x%02x", status)
	}
}

func writeFrame(w io.Writer, tag byte, body []byte) error {
	header := make([]byte, 5)
	binary.BigEndian.PutUint32(header[:4], uint32(len(body)))
	header[4] = tag
	if _, err := w.Write(header); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}

func readFrame(r io.Reader) (byte, []byte, error) {
	header := make([]byte, 5)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, nil, err
	}
	size := binary.BigEndian.Uint32(header[:4])
	if size > maxFrameSize {
		return 0, nil, fmt.Errorf("frame of %d bytes exceeds limit", size)
	}
	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return 0, nil, err
	}
	return header[4], body, nil
}

func newCommand(tag Tag) (Command, error) {
	switch tag {
	case TagAddBucket:
		return &AddBucketCommand{}, nil
	case TagRemoveBucket:
		return &RemoveBucketCommand{}, nil
	case TagPutValue:
		return &PutValueCommand{}, nil
	case TagRemoveValue:
		return &RemoveValueCommand{}, nil
	case TagGetValue:
		return &GetValueCommand{}, nil
	case TagGetValues:
		return &GetValuesCommand{}, nil
	case TagGetKeys:
		return &GetKeysCommand{}, nil
	case TagGetBuckets:
		return &GetBucketsCommand{}, nil
	case TagRangeQuery:
		return &RangeQueryCommand{}, nil
	case TagUpdate:
		return &UpdateCommand{}, nil
	case TagMembership:
		return &MembershipCommand{}, nil
	default:
		return nil, fmt.Errorf("unknown command tag 0x%02x", byte(tag))
	}
}
