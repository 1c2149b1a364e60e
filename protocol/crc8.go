package protocol

// CRC8 computes CRC-8 with polynomial 0x07, initial value 0, no reflection
func CRC8(data []byte) uint8 {
	return CRC8Update(0, data)
}

// CRC8Update continues a CRC-8 over more data
func CRC8Update(crc uint8, data []byte) uint8 {
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ 0x07
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
