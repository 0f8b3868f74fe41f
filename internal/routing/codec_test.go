package routing

import (
	"bytes"
	"errors"
	"testing"
)

func mixedStateTable(t *testing.T) *IndexShardRoutingTable {
	t.Helper()
	shardId := ShardId{IndexName: "products", ShardNumber: 3}
	primary := ShardRouting{
		ShardId: shardId, Primary: true, CurrentNodeId: "node-1",
		State: ShardStateStarted, Version: 42, AllocationId: "alloc-1",
	}
	relocating := ShardRouting{
		ShardId: shardId, Primary: false, CurrentNodeId: "node-2",
		RelocatingNodeId: "node-3", State: ShardStateRelocating, Version: 41,
	}
	unassigned := ShardRouting{
		ShardId: shardId, Primary: false,
		State: ShardStateUnassigned, Version: 0,
	}

	return NewBuilder(shardId, true).
		AddShard(primary).
		AddShard(relocating).
		AddShard(unassigned).
		Build()
}

// TestWireRoundTripFat covers scenario S6 and property P7: decoding
// what was encoded reproduces the table, and re-encoding produces
// byte-identical output.
func TestWireRoundTripFat(t *testing.T) {
	table := mixedStateTable(t)

	var buf bytes.Buffer
	if err := EncodeFat(&buf, table); err != nil {
		t.Fatalf("EncodeFat: %v", err)
	}
	encoded := append([]byte(nil), buf.Bytes()...)

	decoded, err := DecodeFat(bytes.NewReader(encoded))
	if err != nil {
		t.Fatalf("DecodeFat: %v", err)
	}

	assertObservationallyEqual(t, table, decoded)

	var reencoded bytes.Buffer
	if err := EncodeFat(&reencoded, decoded); err != nil {
		t.Fatalf("re-EncodeFat: %v", err)
	}
	if !bytes.Equal(encoded, reencoded.Bytes()) {
		t.Fatalf("re-encoding is not byte-identical:\n first=%x\nsecond=%x", encoded, reencoded.Bytes())
	}
}

// TestWireRoundTripThin checks the thin form, which omits the index
// name and relies on the caller to supply it.
func TestWireRoundTripThin(t *testing.T) {
	table := mixedStateTable(t)

	var buf bytes.Buffer
	if err := EncodeThin(&buf, table); err != nil {
		t.Fatalf("EncodeThin: %v", err)
	}

	decoded, err := DecodeThin(bytes.NewReader(buf.Bytes()), table.ShardId().IndexName)
	if err != nil {
		t.Fatalf("DecodeThin: %v", err)
	}
	assertObservationallyEqual(t, table, decoded)
}

// TestDecodeRejectsUnassignedWithNode checks the §4.4 validity rule:
// an UNASSIGNED entry must not carry a currentNodeId.
func TestDecodeRejectsUnassignedWithNode(t *testing.T) {
	shardId := ShardId{IndexName: "idx", ShardNumber: 0}
	bad := ShardRouting{ShardId: shardId, State: ShardStateUnassigned, CurrentNodeId: "node-1"}

	var buf bytes.Buffer
	if err := encodeShardEntry(&buf, bad); err != nil {
		t.Fatalf("encodeShardEntry: %v", err)
	}

	// Wrap the single entry in a full frame by hand so decodeBody sees it.
	var frame bytes.Buffer
	if err := writeVarUint(&frame, uint64(shardId.ShardNumber)); err != nil {
		t.Fatal(err)
	}
	if err := writeBool(&frame, false); err != nil {
		t.Fatal(err)
	}
	if err := writeVarUint(&frame, 1); err != nil {
		t.Fatal(err)
	}
	frame.Write(buf.Bytes())

	_, err := DecodeThin(bytes.NewReader(frame.Bytes()), shardId.IndexName)
	if err == nil {
		t.Fatal("expected a decode error for an UNASSIGNED entry with a currentNodeId")
	}
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("error %v does not wrap ErrDecode", err)
	}
}

// TestDecodeTruncatedStreamErrors checks §7: truncated bytes are a
// decode error, not a panic.
func TestDecodeTruncatedStreamErrors(t *testing.T) {
	table := mixedStateTable(t)
	var buf bytes.Buffer
	if err := EncodeFat(&buf, table); err != nil {
		t.Fatalf("EncodeFat: %v", err)
	}

	truncated := buf.Bytes()[:len(buf.Bytes())/2]
	_, err := DecodeFat(bytes.NewReader(truncated))
	if err == nil {
		t.Fatal("expected an error decoding a truncated stream")
	}
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("error %v does not wrap ErrDecode", err)
	}
}

// TestDecodeImpossibleStateByteErrors checks §7's "impossible state
// byte" decode error kind.
func TestDecodeImpossibleStateByteErrors(t *testing.T) {
	shardId := ShardId{IndexName: "idx", ShardNumber: 0}
	var frame bytes.Buffer
	if err := writeVarUint(&frame, uint64(shardId.ShardNumber)); err != nil {
		t.Fatal(err)
	}
	if err := writeBool(&frame, false); err != nil {
		t.Fatal(err)
	}
	if err := writeVarUint(&frame, 1); err != nil {
		t.Fatal(err)
	}
	if err := writeBool(&frame, false); err != nil { // primary
		t.Fatal(err)
	}
	if err := writeOptionalString(&frame, "", false); err != nil { // currentNodeId
		t.Fatal(err)
	}
	if err := writeOptionalString(&frame, "", false); err != nil { // relocatingNodeId
		t.Fatal(err)
	}
	if err := writeByte(&frame, 200); err != nil { // impossible state byte
		t.Fatal(err)
	}

	_, err := DecodeThin(bytes.NewReader(frame.Bytes()), shardId.IndexName)
	if err == nil || !errors.Is(err, ErrDecode) {
		t.Fatalf("expected an ErrDecode for an impossible state byte, got %v", err)
	}
}

func assertObservationallyEqual(t *testing.T, want, got *IndexShardRoutingTable) {
	t.Helper()
	if want.ShardId() != got.ShardId() {
		t.Fatalf("ShardId mismatch: want %v, got %v", want.ShardId(), got.ShardId())
	}
	if want.AllocatedPostApi() != got.AllocatedPostApi() {
		t.Fatalf("AllocatedPostApi mismatch: want %v, got %v", want.AllocatedPostApi(), got.AllocatedPostApi())
	}
	if !equalSeq(want.Shards(), got.Shards()) {
		t.Fatalf("Shards mismatch:\n want %+v\n got  %+v", want.Shards(), got.Shards())
	}
}
