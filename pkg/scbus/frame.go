package scbus

// buildFrame assembles a unicast instruction packet:
// 0xFF 0xFF, id, length, instruction, address, payload, ~checksum.
// The checksum covers everything after the header. Parameterless
// instructions (ping) omit the address byte.
func buildFrame(id, inst, addr uint8, data []byte) []byte {
	if data == nil {
		return []byte{0xFF, 0xFF, id, 2, inst, ^(id + 2 + inst)}
	}
	n := uint8(len(data))
	buf := make([]byte, 0, 7+len(data))
	buf = append(buf, 0xFF, 0xFF, id, n+3, inst, addr)
	buf = append(buf, data...)
	sum := id + (n + 3) + inst + addr
	for _, b := range data {
		sum += b
	}
	return append(buf, ^sum)
}

// buildSyncWrite assembles a broadcast sync-write packet carrying size bytes
// of payload per servo, laid out consecutively in data. Servos execute it
// simultaneously and send no acknowledgment.
func buildSyncWrite(addr, size uint8, ids []uint8, data []byte) []byte {
	msgLen := (size+1)*uint8(len(ids)) + 4
	buf := make([]byte, 0, 8+len(ids)+len(data))
	buf = append(buf, 0xFF, 0xFF, broadcastID, msgLen, instSyncWrite, addr, size)
	sum := uint8(broadcastID) + msgLen + instSyncWrite + addr + size
	for i, id := range ids {
		chunk := data[i*int(size) : (i+1)*int(size)]
		buf = append(buf, id)
		buf = append(buf, chunk...)
		sum += id
		for _, b := range chunk {
			sum += b
		}
	}
	return append(buf, ^sum)
}

// encodeSpeed converts a signed speed to the on-wire magnitude plus
// direction-bit form, low byte first.
func encodeSpeed(v int16) (lo, hi byte) {
	u := uint16(v)
	if v < 0 {
		u = uint16(-int32(v)) | 1<<speedSignBit
	}
	return byte(u), byte(u >> 8)
}

// decodeSpeed is the inverse of encodeSpeed.
func decodeSpeed(lo, hi byte) int {
	v := int(hi)<<8 | int(lo)
	if v&(1<<speedSignBit) != 0 {
		v = -(v &^ (1 << speedSignBit))
	}
	return v
}
