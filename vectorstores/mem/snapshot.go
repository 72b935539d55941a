package mem

import (
	"fmt"
	"sort"
	"time"

	"github.com/viant/bintly"
)

// snapshot is the binary on-disk form of the store content.
type snapshot struct {
	collections map[string][]*record
}

func (s *Store) snapshot() *snapshot {
	return &snapshot{collections: s.collections}
}

func (s *snapshot) restore() map[string][]*record {
	if s.collections == nil {
		return make(map[string][]*record)
	}
	return s.collections
}

func (s *snapshot) marshal() ([]byte, error) {
	return bintly.Marshal(s)
}

func (s *snapshot) unmarshal(data []byte) error {
	return bintly.Unmarshal(data, s)
}

// EncodeBinary encodes the snapshot to a binary stream.
func (s *snapshot) EncodeBinary(stream *bintly.Writer) error {
	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	stream.Int(len(names))
	for _, name := range names {
		stream.String(name)
		records := s.collections[name]
		stream.Int(len(records))
		for _, rec := range records {
			if err := encodeRecord(stream, rec); err != nil {
				return err
			}
		}
	}
	return nil
}

// DecodeBinary decodes the snapshot from a binary stream.
func (s *snapshot) DecodeBinary(stream *bintly.Reader) error {
	var count int
	stream.Int(&count)
	s.collections = make(map[string][]*record, count)
	for i := 0; i < count; i++ {
		var name string
		stream.String(&name)
		var size int
		stream.Int(&size)
		records := make([]*record, 0, size)
		for j := 0; j < size; j++ {
			rec, err := decodeRecord(stream)
			if err != nil {
				return err
			}
			records = append(records, rec)
		}
		s.collections[name] = records
	}
	return nil
}

func encodeRecord(stream *bintly.Writer, rec *record) error {
	stream.String(rec.id)
	stream.Int(len(rec.vector))
	for _, v := range rec.vector {
		stream.Float32(v)
	}
	stream.String(rec.doc.PageContent)
	stream.Float32(rec.doc.Score)
	return encodeMetadata(stream, rec.doc.Metadata)
}

func decodeRecord(stream *bintly.Reader) (*record, error) {
	rec := &record{}
	stream.String(&rec.id)
	var dim int
	stream.Int(&dim)
	rec.vector = make([]float32, dim)
	for i := 0; i < dim; i++ {
		stream.Float32(&rec.vector[i])
	}
	stream.String(&rec.doc.PageContent)
	stream.Float32(&rec.doc.Score)
	metadata, err := decodeMetadata(stream)
	if err != nil {
		return nil, err
	}
	rec.doc.Metadata = metadata
	return rec, nil
}

func encodeMetadata(stream *bintly.Writer, metadata map[string]interface{}) error {
	intKeys := make([]string, 0, len(metadata))
	float64Keys := make([]string, 0, len(metadata))
	stringKeys := make([]string, 0, len(metadata))
	timeKeys := make([]string, 0, len(metadata))
	for k, v := range metadata {
		switch v.(type) {
		case int:
			intKeys = append(intKeys, k)
		case float64:
			float64Keys = append(float64Keys, k)
		case string:
			stringKeys = append(stringKeys, k)
		case time.Time:
			timeKeys = append(timeKeys, k)
		default:
			return fmt.Errorf("unsupported metadata type %T for key %q", v, k)
		}
	}
	sort.Strings(intKeys)
	sort.Strings(float64Keys)
	sort.Strings(stringKeys)
	sort.Strings(timeKeys)

	stream.Int16(int16(len(intKeys)))
	for _, k := range intKeys {
		stream.String(k)
		stream.Int(metadata[k].(int))
	}
	stream.Int16(int16(len(float64Keys)))
	for _, k := range float64Keys {
		stream.String(k)
		stream.Float64(metadata[k].(float64))
	}
	stream.Int16(int16(len(stringKeys)))
	for _, k := range stringKeys {
		stream.String(k)
		stream.String(metadata[k].(string))
	}
	stream.Int16(int16(len(timeKeys)))
	for _, k := range timeKeys {
		stream.String(k)
		stream.Time(metadata[k].(time.Time))
	}
	return nil
}

func decodeMetadata(stream *bintly.Reader) (map[string]interface{}, error) {
	metadata := make(map[string]interface{})
	var size int16

	stream.Int16(&size)
	for i := 0; i < int(size); i++ {
		var key string
		var value int
		stream.String(&key)
		stream.Int(&value)
		metadata[key] = value
	}
	stream.Int16(&size)
	for i := 0; i < int(size); i++ {
		var key string
		var value float64
		stream.String(&key)
		stream.Float64(&value)
		metadata[key] = value
	}
	stream.Int16(&size)
	for i := 0; i < int(size); i++ {
		var key, value string
		stream.String(&key)
		stream.String(&value)
		metadata[key] = value
	}
	stream.Int16(&size)
	for i := 0; i < int(size); i++ {
		var key string
		var value time.Time
		stream.String(&key)
		stream.Time(&value)
		metadata[key] = value
	}
	if len(metadata) == 0 {
		return nil, nil
	}
	return metadata, nil
}
