package metadata

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/abema/go-mp4"
)

// mp4Epoch is the zero point of ISO BMFF timestamps.
var mp4Epoch = time.Date(1904, time.January, 1, 0, 0, 0, 0, time.UTC)

func videoTimestamp(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	boxes, err := mp4.ExtractBoxWithPayload(f, nil, mp4.BoxPath{mp4.BoxTypeMoov(), mp4.BoxTypeMvhd()})
	if err != nil {
		return "", fmt.Errorf("%w: reading mp4 boxes: %v", ErrNoTimestamp, err)
	}
	if len(boxes) == 0 {
		return "", fmt.Errorf("%w: no moov/mvhd box", ErrNoTimestamp)
	}

	mvhd, ok := boxes[0].Payload.(*mp4.Mvhd)
	if !ok {
		return "", fmt.Errorf("%w: unexpected mvhd payload %T", ErrNoTimestamp, boxes[0].Payload)
	}

	var secs uint64
	if mvhd.GetVersion() == 1 {
		secs = mvhd.CreationTimeV1
	} else {
		secs = uint64(mvhd.CreationTimeV0)
	}
	t, err := mvhdTime(secs)
	if err != nil {
		return "", err
	}
	return formatUTC(t), nil
}

// maxMvhdSeconds is the largest creation time whose offset from mp4Epoch
// fits in a time.Duration.
const maxMvhdSeconds = math.MaxInt64 / int64(time.Second)

// mvhdTime converts an mvhd creation time to an instant.
func mvhdTime(secs uint64) (time.Time, error) {
	if secs == 0 {
		return time.Time{}, fmt.Errorf("%w: mvhd creation time unset", ErrNoTimestamp)
	}
	if secs > uint64(maxMvhdSeconds) {
		return time.Time{}, fmt.Errorf("%w: mvhd creation time %d out of range", ErrNoTimestamp, secs)
	}
	return mp4Epoch.Add(time.Duration(secs) * time.Second), nil
}
