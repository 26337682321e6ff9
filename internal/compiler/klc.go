package compiler

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"

	"github.com/rahmanazhar/Kilat-Lang/internal/object"
)

// .klc container format (little-endian): magic, (major, minor) version,
// then one recursive code-object record.
var klcMagic = []byte{'K', 'L', 'C', 0}

const (
	klcMajor = 1
	klcMinor = 0
)

// Constant-value tags.
const (
	tagNone      = 0
	tagInt       = 1
	tagFloat     = 2
	tagString    = 3
	tagBoolTrue  = 4
	tagBoolFalse = 5
	tagCode      = 6
	tagList      = 7
)

// Serialize encodes a CodeObject to the on-disk .klc byte form.
func Serialize(code *CodeObject) ([]byte, error) {
	buf := append([]byte(nil), klcMagic...)
	buf = append(buf, klcMajor, klcMinor)
	return serializeCode(buf, code)
}

func appendU32(buf []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(buf, v)
}

func appendString(buf []byte, s string) []byte {
	buf = appendU32(buf, uint32(len(s)))
	return append(buf, s...)
}

func serializeValue(buf []byte, v object.Value) ([]byte, error) {
	switch tv := v.(type) {
	case object.NoneVal:
		return append(buf, tagNone), nil
	case *object.Bool:
		if tv.Value {
			return append(buf, tagBoolTrue), nil
		}
		return append(buf, tagBoolFalse), nil
	case *object.Int:
		if !tv.V.IsInt64() {
			return nil, fmt.Errorf("pemalar integer melebihi 64 bit: %s", tv.V)
		}
		buf = append(buf, tagInt)
		return binary.LittleEndian.AppendUint64(buf, uint64(tv.V.Int64())), nil
	case *object.Float:
		buf = append(buf, tagFloat)
		return binary.LittleEndian.AppendUint64(buf, math.Float64bits(tv.V)), nil
	case *object.Str:
		buf = append(buf, tagString)
		return appendString(buf, tv.V), nil
	case *CodeObject:
		buf = append(buf, tagCode)
		return serializeCode(buf, tv)
	case *object.List:
		buf = append(buf, tagList)
		buf = appendU32(buf, uint32(len(tv.Elems)))
		var err error
		for _, e := range tv.Elems {
			buf, err = serializeValue(buf, e)
			if err != nil {
				return nil, err
			}
		}
		return buf, nil
	}
	return nil, fmt.Errorf("pemalar jenis '%s' tidak boleh disiri", object.TypeName(v))
}

func serializeCode(buf []byte, code *CodeObject) ([]byte, error) {
	buf = appendString(buf, code.Name)
	buf = appendU32(buf, uint32(code.ParamCount))
	buf = appendU32(buf, uint32(len(code.ParamNames)))
	for _, pn := range code.ParamNames {
		buf = appendString(buf, pn)
	}
	buf = appendString(buf, code.VarArgs)
	buf = appendString(buf, code.KwArgs)

	buf = appendU32(buf, uint32(len(code.Constants)))
	var err error
	for _, c := range code.Constants {
		buf, err = serializeValue(buf, c)
		if err != nil {
			return nil, err
		}
	}

	buf = appendU32(buf, uint32(len(code.Names)))
	for _, n := range code.Names {
		buf = appendString(buf, n)
	}

	buf = appendU32(buf, uint32(len(code.Instructions)))
	for _, instr := range code.Instructions {
		buf = append(buf, byte(instr.Op))
		buf = binary.LittleEndian.AppendUint16(buf, uint16(instr.Arg))
		buf = binary.LittleEndian.AppendUint16(buf, instr.Line)
	}
	return buf, nil
}

// Deserialize decodes .klc bytes back into a CodeObject, rejecting unknown
// magic, a different major version, or a newer minor version.
func Deserialize(data []byte) (*CodeObject, error) {
	r := &klcReader{data: data}
	magic, err := r.bytes(4)
	if err != nil {
		return nil, err
	}
	if string(magic) != string(klcMagic) {
		return nil, fmt.Errorf("fail .klc tidak sah (magic salah)")
	}
	ver, err := r.bytes(2)
	if err != nil {
		return nil, err
	}
	if ver[0] != klcMajor || ver[1] > klcMinor {
		return nil, fmt.Errorf("versi .klc tidak disokong: %d.%d", ver[0], ver[1])
	}
	return r.readCode()
}

type klcReader struct {
	data []byte
	pos  int
}

func (r *klcReader) bytes(n int) ([]byte, error) {
	if r.pos+n > len(r.data) {
		return nil, fmt.Errorf("fail .klc terpotong")
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *klcReader) u32() (uint32, error) {
	b, err := r.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *klcReader) str() (string, error) {
	n, err := r.u32()
	if err != nil {
		return "", err
	}
	b, err := r.bytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *klcReader) readValue() (object.Value, error) {
	tag, err := r.bytes(1)
	if err != nil {
		return nil, err
	}
	switch tag[0] {
	case tagNone:
		return object.None, nil
	case tagBoolTrue:
		return object.True, nil
	case tagBoolFalse:
		return object.False, nil
	case tagInt:
		b, err := r.bytes(8)
		if err != nil {
			return nil, err
		}
		return object.NewBigInt(big.NewInt(int64(binary.LittleEndian.Uint64(b)))), nil
	case tagFloat:
		b, err := r.bytes(8)
		if err != nil {
			return nil, err
		}
		return &object.Float{V: math.Float64frombits(binary.LittleEndian.Uint64(b))}, nil
	case tagString:
		s, err := r.str()
		if err != nil {
			return nil, err
		}
		return &object.Str{V: s}, nil
	case tagCode:
		return r.readCode()
	case tagList:
		n, err := r.u32()
		if err != nil {
			return nil, err
		}
		elems := make([]object.Value, n)
		for i := range elems {
			elems[i], err = r.readValue()
			if err != nil {
				return nil, err
			}
		}
		return &object.List{Elems: elems}, nil
	}
	return nil, fmt.Errorf("tag pemalar tidak dikenali: %d", tag[0])
}

func (r *klcReader) readCode() (*CodeObject, error) {
	code := &CodeObject{}
	var err error
	if code.Name, err = r.str(); err != nil {
		return nil, err
	}

	pc, err := r.u32()
	if err != nil {
		return nil, err
	}
	code.ParamCount = int(pc)

	pn, err := r.u32()
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(pn); i++ {
		s, err := r.str()
		if err != nil {
			return nil, err
		}
		code.ParamNames = append(code.ParamNames, s)
	}

	if code.VarArgs, err = r.str(); err != nil {
		return nil, err
	}
	if code.KwArgs, err = r.str(); err != nil {
		return nil, err
	}

	cc, err := r.u32()
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(cc); i++ {
		v, err := r.readValue()
		if err != nil {
			return nil, err
		}
		code.Constants = append(code.Constants, v)
	}

	nc, err := r.u32()
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(nc); i++ {
		s, err := r.str()
		if err != nil {
			return nil, err
		}
		code.Names = append(code.Names, s)
	}

	ic, err := r.u32()
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(ic); i++ {
		raw, err := r.bytes(5)
		if err != nil {
			return nil, err
		}
		code.Instructions = append(code.Instructions, Instruction{
			Op:   Opcode(raw[0]),
			Arg:  int16(binary.LittleEndian.Uint16(raw[1:3])),
			Line: binary.LittleEndian.Uint16(raw[3:5]),
		})
	}
	return code, nil
}
