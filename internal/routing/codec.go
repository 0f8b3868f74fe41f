package routing

import (
	"bufio"
	"fmt"
	"io"

	"github.com/multiformats/go-varint"
)

// maxWireStringLen and maxWireShardCount bound a single decode so a
// corrupt or adversarial length prefix cannot force an unbounded
// allocation; both are generous relative to any real cluster (a
// single index name or allocation id over 1MiB, or a shard group over
// 65536 replicas, is itself a sign the stream is malformed).
const (
	maxWireStringLen  = 1 << 20
	maxWireShardCount = 1 << 16
)

// EncodeFat writes t in the "fat" wire form: indexName followed by the
// thin body. The output is canonical — the same logical table always
// produces the same bytes, in t.Shards() order.
func EncodeFat(w io.Writer, t *IndexShardRoutingTable) error {
	if err := writeString(w, t.shardId.IndexName); err != nil {
		return err
	}
	return encodeBody(w, t)
}

// EncodeThin writes t in the "thin" wire form: the fat form with the
// indexName step omitted. The reader must supply indexName out of
// band (e.g. it already knows which index this frame belongs to).
func EncodeThin(w io.Writer, t *IndexShardRoutingTable) error {
	return encodeBody(w, t)
}

func encodeBody(w io.Writer, t *IndexShardRoutingTable) error {
	if err := writeVarUint(w, uint64(t.shardId.ShardNumber)); err != nil {
		return err
	}
	if err := writeBool(w, t.allocatedPostApi); err != nil {
		return err
	}
	if err := writeVarUint(w, uint64(len(t.shards))); err != nil {
		return err
	}
	for _, sh := range t.shards {
		if err := encodeShardEntry(w, sh); err != nil {
			return err
		}
	}
	return nil
}

func encodeShardEntry(w io.Writer, sh ShardRouting) error {
	if err := writeBool(w, sh.Primary); err != nil {
		return err
	}
	if err := writeOptionalString(w, sh.CurrentNodeId, sh.AssignedToNode()); err != nil {
		return err
	}
	if err := writeOptionalString(w, sh.RelocatingNodeId, sh.RelocatingNodeId != ""); err != nil {
		return err
	}
	if err := writeByte(w, byte(sh.State)); err != nil {
		return err
	}
	if err := writeVarUint(w, sh.Version); err != nil {
		return err
	}
	return writeOptionalString(w, sh.AllocationId, sh.AllocationId != "")
}

// DecodeFat reads a table previously written by EncodeFat.
func DecodeFat(r io.Reader) (*IndexShardRoutingTable, error) {
	br := bufio.NewReader(r)
	indexName, err := readString(br)
	if err != nil {
		return nil, err
	}
	return decodeBody(br, indexName)
}

// DecodeThin reads a table previously written by EncodeThin. indexName
// is supplied by the caller since the thin form never wrote it.
func DecodeThin(r io.Reader, indexName string) (*IndexShardRoutingTable, error) {
	return decodeBody(bufio.NewReader(r), indexName)
}

func decodeBody(br *bufio.Reader, indexName string) (*IndexShardRoutingTable, error) {
	shardNumber, err := readVarUint(br)
	if err != nil {
		return nil, err
	}
	allocatedPostApi, err := readBool(br)
	if err != nil {
		return nil, err
	}
	count, err := readVarUint(br)
	if err != nil {
		return nil, err
	}
	if count > maxWireShardCount {
		return nil, fmt.Errorf("%w: shard count %d exceeds limit", ErrDecode, count)
	}

	shardId := ShardId{IndexName: indexName, ShardNumber: int(shardNumber)}
	b := NewBuilder(shardId, allocatedPostApi)

	for i := uint64(0); i < count; i++ {
		sh, err := decodeShardEntry(br, shardId)
		if err != nil {
			return nil, err
		}
		b.AddShard(sh)
	}

	return b.Build(), nil
}

func decodeShardEntry(br *bufio.Reader, shardId ShardId) (ShardRouting, error) {
	primary, err := readBool(br)
	if err != nil {
		return ShardRouting{}, err
	}
	currentNodeId, err := readOptionalString(br)
	if err != nil {
		return ShardRouting{}, err
	}
	relocatingNodeId, err := readOptionalString(br)
	if err != nil {
		return ShardRouting{}, err
	}
	stateByte, err := br.ReadByte()
	if err != nil {
		return ShardRouting{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if stateByte > byte(ShardStateRelocating) {
		return ShardRouting{}, fmt.Errorf("%w: impossible state byte %d", ErrDecode, stateByte)
	}
	state := ShardRoutingState(stateByte)

	version, err := readVarUint(br)
	if err != nil {
		return ShardRouting{}, err
	}
	allocationId, err := readOptionalString(br)
	if err != nil {
		return ShardRouting{}, err
	}

	if state == ShardStateUnassigned && currentNodeId != "" {
		return ShardRouting{}, fmt.Errorf("%w: UNASSIGNED entry carries a currentNodeId", ErrDecode)
	}

	return ShardRouting{
		ShardId:          shardId,
		Primary:          primary,
		CurrentNodeId:    currentNodeId,
		RelocatingNodeId: relocatingNodeId,
		State:            state,
		Version:          version,
		AllocationId:     allocationId,
	}, nil
}

func writeVarUint(w io.Writer, x uint64) error {
	buf := make([]byte, varint.MaxLenUvarint63)
	n := varint.PutUvarint(buf, x)
	_, err := w.Write(buf[:n])
	return err
}

func readVarUint(br *bufio.Reader) (uint64, error) {
	x, err := varint.ReadUvarint(br)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return x, nil
}

func writeByte(w io.Writer, b byte) error {
	_, err := w.Write([]byte{b})
	return err
}

func writeBool(w io.Writer, v bool) error {
	if v {
		return writeByte(w, 1)
	}
	return writeByte(w, 0)
}

func readBool(br *bufio.Reader) (bool, error) {
	b, err := br.ReadByte()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return b != 0, nil
}

func writeString(w io.Writer, s string) error {
	if err := writeVarUint(w, uint64(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(br *bufio.Reader) (string, error) {
	n, err := readVarUint(br)
	if err != nil {
		return "", err
	}
	if n > maxWireStringLen {
		return "", fmt.Errorf("%w: string length %d exceeds limit", ErrDecode, n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(br, buf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return string(buf), nil
}

func writeOptionalString(w io.Writer, s string, present bool) error {
	if !present {
		return writeByte(w, 0)
	}
	if err := writeByte(w, 1); err != nil {
		return err
	}
	return writeString(w, s)
}

func readOptionalString(br *bufio.Reader) (string, error) {
	marker, err := br.ReadByte()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	switch marker {
	case 0:
		return "", nil
	case 1:
		return readString(br)
	default:
		return "", fmt.Errorf("%w: bad optional-string marker %d", ErrDecode, marker)
	}
}
