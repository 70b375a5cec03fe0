package state

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// platformDataType marks a program-data record of the platform loader.
const platformDataType uint32 = 3

// PlatformDataLen is the size of the program-data header: type (4) +
// deployment slot (8) + optional upgrade authority (1+32).
const PlatformDataLen = 4 + 8 + 33

// PlatformData is the loader-owned record naming a program's upgrade
// authority. A nil authority means the program is immutable.
type PlatformData struct {
	Slot             uint64
	UpgradeAuthority *solana.PublicKey
}

// Encode serializes the program-data header.
func (p *PlatformData) Encode() []byte {
	buf := make([]byte, PlatformDataLen)
	binary.LittleEndian.PutUint32(buf[0:], platformDataType)
	binary.LittleEndian.PutUint64(buf[4:], p.Slot)
	if p.UpgradeAuthority != nil {
		buf[12] = 1
		copy(buf[13:], p.UpgradeAuthority[:])
	}
	return buf
}

// DecodePlatformData parses a program-data header. Extra bytes after the
// header hold program code and are ignored.
func DecodePlatformData(data []byte) (*PlatformData, error) {
	if len(data) < PlatformDataLen {
		return nil, fmt.Errorf("platform data: %d bytes: %w", len(data), ErrShortRecord)
	}
	if t := binary.LittleEndian.Uint32(data[0:]); t != platformDataType {
		return nil, fmt.Errorf("platform data: account type %d: %w", t, ErrRecordTag)
	}
	p := &PlatformData{Slot: binary.LittleEndian.Uint64(data[4:])}
	switch data[12] {
	case 0:
	case 1:
		var authority solana.PublicKey
		copy(authority[:], data[13:45])
		p.UpgradeAuthority = &authority
	default:
		return nil, fmt.Errorf("platform data: authority tag %d: %w", data[12], ErrInvalidOption)
	}
	return p, nil
}
