// Package bucketio implements the concrete streaming contract §6 leaves
// unspecified: each bucket file record is a 4-byte little-endian length
// followed by an s2-compressed, binary.Write-encoded BucketEntry. It plays
// the role the teacher's sstable/writer.go and sstable/reader.go play for
// the teacher's own block format, adapted to a per-record rather than
// per-block granularity because the merge sink (bucket.BucketOutputIterator)
// never buffers more than one entry at a time.
package bucketio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/s2"

	"github.com/stellarbase/bucketlist/xdr"
)

const lengthPrefixSize = 4

// WriteRecord encodes e, compresses it, writes the length-prefixed record
// to w, and returns the number of bytes written (the unit the output
// builder's byte accounting and hash both use).
func WriteRecord(w io.Writer, e xdr.BucketEntry) (int64, error) {
	raw, err := encodeEntry(e)
	if err != nil {
		return 0, err
	}
	compressed := s2.Encode(nil, raw)

	var header [lengthPrefixSize]byte
	binary.LittleEndian.PutUint32(header[:], uint32(len(compressed)))

	n1, err := w.Write(header[:])
	if err != nil {
		return int64(n1), fmt.Errorf("bucketio: write record header: %w", err)
	}
	n2, err := w.Write(compressed)
	if err != nil {
		return int64(n1 + n2), fmt.Errorf("bucketio: write record body: %w", err)
	}
	return int64(n1 + n2), nil
}

// ReadRecord reads one length-prefixed record from r, in stream order.
func ReadRecord(r io.Reader) (xdr.BucketEntry, error) {
	var header [lengthPrefixSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return xdr.BucketEntry{}, err
	}
	n := binary.LittleEndian.Uint32(header[:])

	compressed := make([]byte, n)
	if _, err := io.ReadFull(r, compressed); err != nil {
		return xdr.BucketEntry{}, fmt.Errorf("bucketio: read record body: %w", err)
	}

	raw, err := s2.Decode(nil, compressed)
	if err != nil {
		return xdr.BucketEntry{}, fmt.Errorf("bucketio: decompress record: %w", err)
	}
	return decodeEntry(raw)
}

// ReadRecordAt reads the record whose length prefix starts at offset in ra,
// and also returns the total number of bytes the record occupies (header +
// body), so a page-aware index scan can advance past it.
func ReadRecordAt(ra io.ReaderAt, offset int64) (xdr.BucketEntry, int64, error) {
	var header [lengthPrefixSize]byte
	if _, err := ra.ReadAt(header[:], offset); err != nil {
		return xdr.BucketEntry{}, 0, err
	}
	n := binary.LittleEndian.Uint32(header[:])

	compressed := make([]byte, n)
	if _, err := ra.ReadAt(compressed, offset+lengthPrefixSize); err != nil {
		return xdr.BucketEntry{}, 0, fmt.Errorf("bucketio: read record body at %d: %w", offset, err)
	}

	raw, err := s2.Decode(nil, compressed)
	if err != nil {
		return xdr.BucketEntry{}, 0, fmt.Errorf("bucketio: decompress record at %d: %w", offset, err)
	}
	entry, err := decodeEntry(raw)
	if err != nil {
		return xdr.BucketEntry{}, 0, err
	}
	return entry, lengthPrefixSize + int64(n), nil
}

// --- entry <-> bytes -------------------------------------------------

func encodeEntry(e xdr.BucketEntry) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, int32(e.Type)); err != nil {
		return nil, fmt.Errorf("bucketio: encode entry type: %w", err)
	}

	var err error
	switch e.Type {
	case xdr.LiveEntryType, xdr.InitEntryType, xdr.ArchiveArchivedType:
		err = encodeLedgerEntry(buf, e.Entry)
	case xdr.DeadEntryType, xdr.ArchiveLiveType:
		err = encodeLedgerKey(buf, e.Key)
	case xdr.MetaEntryType, xdr.ArchiveMetaType:
		if err2 := binary.Write(buf, binary.LittleEndian, e.Meta.LedgerVersion); err2 != nil {
			err = fmt.Errorf("bucketio: encode meta entry: %w", err2)
		}
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeEntry(raw []byte) (xdr.BucketEntry, error) {
	r := bytes.NewReader(raw)
	var typ int32
	if err := binary.Read(r, binary.LittleEndian, &typ); err != nil {
		return xdr.BucketEntry{}, fmt.Errorf("bucketio: decode entry type: %w", err)
	}

	e := xdr.BucketEntry{Type: xdr.BucketEntryType(typ)}
	switch e.Type {
	case xdr.LiveEntryType, xdr.InitEntryType, xdr.ArchiveArchivedType:
		entry, err := decodeLedgerEntry(r)
		if err != nil {
			return xdr.BucketEntry{}, err
		}
		e.Entry = entry
	case xdr.DeadEntryType, xdr.ArchiveLiveType:
		key, err := decodeLedgerKey(r)
		if err != nil {
			return xdr.BucketEntry{}, err
		}
		e.Key = key
	case xdr.MetaEntryType, xdr.ArchiveMetaType:
		if err := binary.Read(r, binary.LittleEndian, &e.Meta.LedgerVersion); err != nil {
			return xdr.BucketEntry{}, fmt.Errorf("bucketio: decode meta entry: %w", err)
		}
	default:
		return xdr.BucketEntry{}, fmt.Errorf("bucketio: unknown bucket entry type %d", typ)
	}
	return e, nil
}

func writeString(buf *bytes.Buffer, s string) error {
	if err := binary.Write(buf, binary.LittleEndian, uint32(len(s))); err != nil {
		return fmt.Errorf("bucketio: encode string length: %w", err)
	}
	buf.WriteString(s)
	return nil
}

func readString(r *bytes.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

func encodeAsset(buf *bytes.Buffer, a xdr.Asset) error {
	if err := binary.Write(buf, binary.LittleEndian, int32(a.Type)); err != nil {
		return fmt.Errorf("bucketio: encode asset type: %w", err)
	}
	switch a.Type {
	case xdr.AssetTypeCreditAlphanum:
		if err := writeString(buf, a.Code); err != nil {
			return err
		}
		if err := writeString(buf, string(a.Issuer)); err != nil {
			return err
		}
	case xdr.AssetTypePoolShare:
		if err := writeString(buf, string(a.LiquidityPool)); err != nil {
			return err
		}
	}
	return nil
}

func decodeAsset(r *bytes.Reader) (xdr.Asset, error) {
	var typ int32
	if err := binary.Read(r, binary.LittleEndian, &typ); err != nil {
		return xdr.Asset{}, err
	}
	a := xdr.Asset{Type: xdr.AssetType(typ)}
	switch a.Type {
	case xdr.AssetTypeCreditAlphanum:
		code, err := readString(r)
		if err != nil {
			return xdr.Asset{}, err
		}
		issuer, err := readString(r)
		if err != nil {
			return xdr.Asset{}, err
		}
		a.Code, a.Issuer = code, xdr.AccountID(issuer)
	case xdr.AssetTypePoolShare:
		pool, err := readString(r)
		if err != nil {
			return xdr.Asset{}, err
		}
		a.LiquidityPool = xdr.PoolID(pool)
	}
	return a, nil
}

func encodeLedgerKey(buf *bytes.Buffer, k xdr.LedgerKey) error {
	if err := binary.Write(buf, binary.LittleEndian, int32(k.Type)); err != nil {
		return fmt.Errorf("bucketio: encode ledger key type: %w", err)
	}
	switch k.Type {
	case xdr.LedgerKeyAccount:
		return writeString(buf, string(k.Account.AccountID))
	case xdr.LedgerKeyTrustLine:
		if err := writeString(buf, string(k.TrustLine.AccountID)); err != nil {
			return err
		}
		return encodeAsset(buf, k.TrustLine.Asset)
	case xdr.LedgerKeyLiquidityPool:
		return writeString(buf, string(k.LiquidityPool.PoolID))
	default:
		if err := writeString(buf, k.Other.Kind); err != nil {
			return err
		}
		return writeString(buf, k.Other.ID)
	}
}

func decodeLedgerKey(r *bytes.Reader) (xdr.LedgerKey, error) {
	var typ int32
	if err := binary.Read(r, binary.LittleEndian, &typ); err != nil {
		return xdr.LedgerKey{}, err
	}
	switch xdr.LedgerKeyType(typ) {
	case xdr.LedgerKeyAccount:
		id, err := readString(r)
		if err != nil {
			return xdr.LedgerKey{}, err
		}
		return xdr.AccountKey(xdr.AccountID(id)), nil
	case xdr.LedgerKeyTrustLine:
		id, err := readString(r)
		if err != nil {
			return xdr.LedgerKey{}, err
		}
		asset, err := decodeAsset(r)
		if err != nil {
			return xdr.LedgerKey{}, err
		}
		return xdr.TrustLineKey(xdr.AccountID(id), asset), nil
	case xdr.LedgerKeyLiquidityPool:
		id, err := readString(r)
		if err != nil {
			return xdr.LedgerKey{}, err
		}
		return xdr.LiquidityPoolKey(xdr.PoolID(id)), nil
	default:
		kind, err := readString(r)
		if err != nil {
			return xdr.LedgerKey{}, err
		}
		id, err := readString(r)
		if err != nil {
			return xdr.LedgerKey{}, err
		}
		return xdr.OtherKey(kind, id), nil
	}
}

func encodeLedgerEntry(buf *bytes.Buffer, e xdr.LedgerEntry) error {
	if err := binary.Write(buf, binary.LittleEndian, int32(e.Type)); err != nil {
		return fmt.Errorf("bucketio: encode ledger entry type: %w", err)
	}
	switch e.Type {
	case xdr.LedgerEntryAccount:
		if err := writeString(buf, string(e.Account.AccountID)); err != nil {
			return err
		}
		if err := binary.Write(buf, binary.LittleEndian, e.Account.Balance); err != nil {
			return fmt.Errorf("bucketio: encode account balance: %w", err)
		}
		if e.Account.InflationDest != nil {
			if err := buf.WriteByte(1); err != nil {
				return fmt.Errorf("bucketio: encode inflation dest marker: %w", err)
			}
			return writeString(buf, string(*e.Account.InflationDest))
		}
		if err := buf.WriteByte(0); err != nil {
			return fmt.Errorf("bucketio: encode inflation dest marker: %w", err)
		}
		return nil
	case xdr.LedgerEntryTrustLine:
		if err := writeString(buf, string(e.TrustLine.AccountID)); err != nil {
			return err
		}
		if err := encodeAsset(buf, e.TrustLine.Asset); err != nil {
			return err
		}
		if err := binary.Write(buf, binary.LittleEndian, e.TrustLine.Balance); err != nil {
			return fmt.Errorf("bucketio: encode trustline balance: %w", err)
		}
		return nil
	case xdr.LedgerEntryLiquidityPool:
		if err := writeString(buf, string(e.LiquidityPool.PoolID)); err != nil {
			return err
		}
		if err := encodeAsset(buf, e.LiquidityPool.AssetA); err != nil {
			return err
		}
		return encodeAsset(buf, e.LiquidityPool.AssetB)
	default:
		return writeString(buf, e.Other.Kind)
	}
}

func decodeLedgerEntry(r *bytes.Reader) (xdr.LedgerEntry, error) {
	var typ int32
	if err := binary.Read(r, binary.LittleEndian, &typ); err != nil {
		return xdr.LedgerEntry{}, err
	}
	switch xdr.LedgerEntryType(typ) {
	case xdr.LedgerEntryAccount:
		id, err := readString(r)
		if err != nil {
			return xdr.LedgerEntry{}, err
		}
		var balance int64
		if err := binary.Read(r, binary.LittleEndian, &balance); err != nil {
			return xdr.LedgerEntry{}, err
		}
		hasDest, err := r.ReadByte()
		if err != nil {
			return xdr.LedgerEntry{}, err
		}
		var dest *xdr.AccountID
		if hasDest == 1 {
			d, err := readString(r)
			if err != nil {
				return xdr.LedgerEntry{}, err
			}
			destID := xdr.AccountID(d)
			dest = &destID
		}
		return xdr.AccountLedgerEntry(xdr.AccountID(id), balance, dest), nil
	case xdr.LedgerEntryTrustLine:
		id, err := readString(r)
		if err != nil {
			return xdr.LedgerEntry{}, err
		}
		asset, err := decodeAsset(r)
		if err != nil {
			return xdr.LedgerEntry{}, err
		}
		var balance int64
		if err := binary.Read(r, binary.LittleEndian, &balance); err != nil {
			return xdr.LedgerEntry{}, err
		}
		return xdr.TrustLineLedgerEntry(xdr.AccountID(id), asset, balance), nil
	case xdr.LedgerEntryLiquidityPool:
		id, err := readString(r)
		if err != nil {
			return xdr.LedgerEntry{}, err
		}
		a, err := decodeAsset(r)
		if err != nil {
			return xdr.LedgerEntry{}, err
		}
		b, err := decodeAsset(r)
		if err != nil {
			return xdr.LedgerEntry{}, err
		}
		return xdr.LiquidityPoolLedgerEntry(xdr.PoolID(id), a, b), nil
	default:
		kind, err := readString(r)
		if err != nil {
			return xdr.LedgerEntry{}, err
		}
		return xdr.OtherLedgerEntry(kind), nil
	}
}
