package envelope

import (
	"bytes"
	"fmt"
	"unicode/utf8"
)

// DecodeWarning is a non-fatal problem with one lane. Parsing continues
// past it; the lane's raw bytes stay available.
type DecodeWarning struct {
	Lane   string
	Offset int
	Msg    string
}

func (w DecodeWarning) String() string {
	return fmt.Sprintf("%s @%d: %s", w.Lane, w.Offset, w.Msg)
}

// ContentResult is the CONTENT lane. Descriptor is nil when the bytes are
// not a valid transfer descriptor; Text is empty when they are not UTF-8.
type ContentResult struct {
	Raw        []byte
	Text       string
	Descriptor *TransferDescriptor
}

// ParseResult is everything recovered from one script. Offsets are byte
// positions in the script: the tag, and each lane's selector byte (-1 when
// the lane is absent).
type ParseResult struct {
	MarkerOffset  int
	ExtraOffset   int
	ContentOffset int

	Routing RoutingResult
	Content *ContentResult
	// EndIf reports that OP_ENDIF directly follows the CONTENT lane.
	EndIf    bool
	Warnings []DecodeWarning
}

// Parse locates the envelope in script and decodes both lanes.
//
// Structural problems (no tag, no EXTRA selector, bad framing, a lane running
// past the end of the script) fail the parse. Undecodable lane contents only
// add a warning. A script whose CONTENT selector is missing parses
// successfully with Content == nil.
func Parse(script []byte) (*ParseResult, error) {
	tagAt := bytes.Index(script, []byte(ProtocolTag))
	if tagAt < 0 {
		return nil, parseerr(PARSE_ERR_MARKER_NOT_FOUND, StageMarker, len(script), fmt.Sprintf("no %q tag in %d-byte script", ProtocolTag, len(script)))
	}
	res := &ParseResult{MarkerOffset: tagAt, ExtraOffset: -1, ContentOffset: -1}
	off := tagAt + len(ProtocolTag)

	// An envelope may omit the EXTRA lane, in which case the CONTENT
	// selector follows the tag directly.
	if off < len(script) && script[off] == LANE_CONTENT {
		res.Routing = RoutingResult{Format: RoutingAbsent}
	} else {
		sel := scanByte(script, off, LANE_EXTRA)
		if sel < 0 {
			return nil, parseerr(PARSE_ERR_EXTRA_MARKER_NOT_FOUND, StageExtra, len(script), fmt.Sprintf("no 0x%02x selector after tag", LANE_EXTRA))
		}
		extra, next, err := readLane(script, sel, StageExtra, PARSE_ERR_EXTRA_OUT_OF_BOUNDS)
		if err != nil {
			return nil, err
		}
		res.ExtraOffset = sel
		res.Routing = DecodeRouting(extra)
		if res.Routing.Format == RoutingUndecodable {
			res.Warnings = append(res.Warnings, DecodeWarning{Lane: StageExtra, Offset: sel, Msg: "routing blob undecodable: " + res.Routing.Reason})
		}
		off = next
	}

	sel := scanByte(script, off, LANE_CONTENT)
	if sel < 0 {
		return res, nil
	}
	content, next, err := readLane(script, sel, StageContent, PARSE_ERR_CONTENT_OUT_OF_BOUNDS)
	if err != nil {
		return nil, err
	}
	res.ContentOffset = sel
	res.EndIf = next < len(script) && script[next] == OP_ENDIF
	var derr error
	res.Content, derr = decodeContent(content)
	if derr != nil {
		res.Warnings = append(res.Warnings, DecodeWarning{Lane: StageContent, Offset: sel, Msg: "transfer descriptor undecodable: " + derr.Error()})
	}
	return res, nil
}

// readLane decodes the push following the selector at sel and returns a
// copy of its payload plus the offset just past it.
func readLane(script []byte, sel int, stage string, oob ErrorCode) ([]byte, int, error) {
	n, k, err := decodePushHeader(script, sel+1)
	if err != nil {
		return nil, 0, framingParseErr(err, stage)
	}
	off := sel + 1 + k
	lane, err := readBytes(script, &off, n, oob, stage)
	if err != nil {
		return nil, 0, err
	}
	return append([]byte(nil), lane...), off, nil
}

func decodeContent(b []byte) (*ContentResult, error) {
	c := &ContentResult{Raw: b}
	if utf8.Valid(b) {
		c.Text = string(b)
	}
	d, err := DecodeTransferDescriptor(b)
	if err != nil {
		return c, err
	}
	c.Descriptor = &d
	return c, nil
}
