// Package testutil synthesizes minimal MP3 fixtures for tests: raw MPEG-1
// Layer III frames and ID3v2.3 tags with an embedded picture frame.
package testutil

import (
	"bytes"
	"encoding/binary"
)

// frameSize is the byte length of one 128 kbps 44.1 kHz MPEG-1 Layer III
// frame: 144 * 128000 / 44100, no padding.
const frameSize = 417

// FrameDuration is the playback time of one synthesized frame in seconds
// (1152 samples at 44.1 kHz).
const FrameDuration = 1152.0 / 44100.0

// MP3Frames returns n valid MPEG-1 Layer III frame headers with zeroed
// payloads. Decoders that only walk frame headers accept this as ~n*26ms of
// audio.
func MP3Frames(n int) []byte {
	frame := make([]byte, frameSize)
	frame[0] = 0xFF // sync
	frame[1] = 0xFB // MPEG-1 Layer III, no CRC
	frame[2] = 0x90 // 128 kbps, 44.1 kHz, no padding
	frame[3] = 0x44 // joint stereo

	var buf bytes.Buffer
	for i := 0; i < n; i++ {
		buf.Write(frame)
	}
	return buf.Bytes()
}

// JPEGStub returns bytes that sniff as image/jpeg. The marker sequence is
// chosen so no byte pair inside the tag can be mistaken for an MPEG frame
// sync word.
func JPEGStub() []byte {
	return append([]byte{0xFF, 0xD8, 0xFF, 0xDB}, []byte("lessup-test-cover")...)
}

// ID3v2 builds an ID3v2.3 tag containing the given frames.
func ID3v2(frames ...[]byte) []byte {
	var body bytes.Buffer
	for _, f := range frames {
		body.Write(f)
	}

	header := make([]byte, 10)
	copy(header, "ID3")
	header[3] = 0x03 // v2.3.0
	putSyncsafe(header[6:10], uint32(body.Len()))

	return append(header, body.Bytes()...)
}

// APICFrame builds an ID3v2.3 APIC frame embedding the picture bytes as a
// front-cover JPEG.
func APICFrame(picture []byte) []byte {
	var body bytes.Buffer
	body.WriteByte(0x00) // ISO-8859-1
	body.WriteString("image/jpeg")
	body.WriteByte(0x00)
	body.WriteByte(0x03) // front cover
	body.WriteByte(0x00) // empty description
	body.Write(picture)

	return frame("APIC", body.Bytes())
}

// TextFrame builds a simple ID3v2.3 text information frame (e.g. "TIT2").
func TextFrame(id, value string) []byte {
	var body bytes.Buffer
	body.WriteByte(0x00) // ISO-8859-1
	body.WriteString(value)

	return frame(id, body.Bytes())
}

// MP3WithCover returns a complete MP3 fixture: ID3v2.3 tag with the picture
// embedded, followed by n audio frames.
func MP3WithCover(picture []byte, n int) []byte {
	return append(ID3v2(APICFrame(picture)), MP3Frames(n)...)
}

// MP3WithoutCover returns an MP3 fixture tagged with a title only, no
// picture frame.
func MP3WithoutCover(title string, n int) []byte {
	return append(ID3v2(TextFrame("TIT2", title)), MP3Frames(n)...)
}

func frame(id string, body []byte) []byte {
	header := make([]byte, 10)
	copy(header, id)
	binary.BigEndian.PutUint32(header[4:8], uint32(len(body))) // v2.3: plain size
	return append(header, body...)
}

func putSyncsafe(dst []byte, v uint32) {
	dst[0] = byte(v >> 21 & 0x7F)
	dst[1] = byte(v >> 14 & 0x7F)
	dst[2] = byte(v >> 7 & 0x7F)
	dst[3] = byte(v & 0x7F)
}
