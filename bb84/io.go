package bb84

import (
	"encoding/binary"
	"fmt"
	"io"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// maxFrameBytes bounds the size of a single frame accepted by a RecordReader.
const maxFrameBytes = 64 << 20

// A BatchRecord is the unit written to a record stream: one simulation run
// together with what produced it.
type BatchRecord struct {
	Experiment string
	Run        int
	Seed       int64
	Params     Parameters
	Result     Result
}

// A protoFramer reads and writes framed protocol buffers to the wire.
// The structure of the frame is trivial:  proto-length | proto
type protoFramer struct {
	rw io.ReadWriter
}

func (p *protoFramer) Write(m proto.Message) error {
	marshalled, err := protoMarshal(m)
	if err != nil {
		return err
	}
	if err := binary.Write(p.rw, binary.LittleEndian, int32(len(marshalled))); err != nil {
		return err
	}
	if _, err := p.rw.Write(marshalled); err != nil {
		return err
	}
	return nil
}

func (p *protoFramer) Read(m proto.Message) error {
	var mLen int32
	if err := binary.Read(p.rw, binary.LittleEndian, &mLen); err != nil {
		return err
	}
	if mLen < 0 || mLen > maxFrameBytes {
		return fmt.Errorf("invalid frame length %d", mLen)
	}
	marshalled := make([]byte, mLen)
	if _, err := io.ReadFull(p.rw, marshalled); err != nil {
		return err
	}
	return proto.Unmarshal(marshalled, m)
}

func protoMarshal(m proto.Message) ([]byte, error) {
	return proto.MarshalOptions{Deterministic: true}.Marshal(m)
}

// A RecordWriter streams BatchRecords as length-prefixed protobuf frames.
type RecordWriter struct {
	pf protoFramer
}

// NewRecordWriter returns a RecordWriter writing to w.
func NewRecordWriter(w io.Writer) *RecordWriter {
	return &RecordWriter{pf: protoFramer{rw: writeOnly{w}}}
}

// Write appends rec to the stream.
func (rw *RecordWriter) Write(rec BatchRecord) error {
	res, err := rec.Result.ToProto()
	if err != nil {
		return err
	}
	params, err := structpb.NewStruct(map[string]interface{}{
		"numQubits":           rec.Params.NumQubits,
		"includeEve":          rec.Params.IncludeEve,
		"eveInterceptionRate": rec.Params.EveInterceptionRate,
		"noiseLevel":          rec.Params.NoiseLevel,
	})
	if err != nil {
		return err
	}
	return rw.pf.Write(&structpb.Struct{Fields: map[string]*structpb.Value{
		"experiment": structpb.NewStringValue(rec.Experiment),
		"run":        structpb.NewNumberValue(float64(rec.Run)),
		// Seeds are written as strings; a float64 cannot hold every int64.
		"seed":   structpb.NewStringValue(fmt.Sprint(rec.Seed)),
		"params": structpb.NewStructValue(params),
		"result": structpb.NewStructValue(res),
	}})
}

// A RecordReader reads back a stream produced by a RecordWriter.
type RecordReader struct {
	pf protoFramer
}

// NewRecordReader returns a RecordReader reading from r.
func NewRecordReader(r io.Reader) *RecordReader {
	return &RecordReader{pf: protoFramer{rw: readOnly{r}}}
}

// Read returns the next record, or io.EOF at the end of the stream.
func (rr *RecordReader) Read() (BatchRecord, error) {
	m := new(structpb.Struct)
	if err := rr.pf.Read(m); err != nil {
		return BatchRecord{}, err
	}
	f := m.GetFields()
	rec := BatchRecord{
		Experiment: f["experiment"].GetStringValue(),
		Run:        int(f["run"].GetNumberValue()),
	}
	if _, err := fmt.Sscan(f["seed"].GetStringValue(), &rec.Seed); err != nil {
		return BatchRecord{}, fmt.Errorf("parsing seed: %w", err)
	}
	pf := f["params"].GetStructValue().GetFields()
	rec.Params = Parameters{
		NumQubits:           int(pf["numQubits"].GetNumberValue()),
		IncludeEve:          pf["includeEve"].GetBoolValue(),
		EveInterceptionRate: pf["eveInterceptionRate"].GetNumberValue(),
		NoiseLevel:          pf["noiseLevel"].GetNumberValue(),
	}
	res, err := ResultFromProto(f["result"].GetStructValue())
	if err != nil {
		return BatchRecord{}, err
	}
	rec.Result = res
	return rec, nil
}

type writeOnly struct{ io.Writer }

func (writeOnly) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }

type readOnly struct{ io.Reader }

func (readOnly) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }
