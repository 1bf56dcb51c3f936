package battery

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// APA is the LC709203F "adjustment pack application" register value. The
// gauge picks its internal model from it, so it must match the pack size.
type APA uint8

func (a APA) String() string {
	return fmt.Sprintf("0x%02X", uint8(a))
}

// APARow is one point of the datasheet capacity curve.
type APARow struct {
	CapacityMah int
	Code        APA
}

// APATable lists the capacity codes from the LC709203F datasheet, ordered by
// capacity.
var APATable = []APARow{
	{CapacityMah: 100, Code: 0x08},
	{CapacityMah: 200, Code: 0x0B},
	{CapacityMah: 500, Code: 0x10},
	{CapacityMah: 1000, Code: 0x19},
	{CapacityMah: 1200, Code: 0x1D},
	{CapacityMah: 2000, Code: 0x2D},
	{CapacityMah: 2500, Code: 0x32},
	{CapacityMah: 3000, Code: 0x36},
}

// APAFor returns the code of the datasheet row closest to capacityMah. Ties
// go to the smaller pack.
func APAFor(capacityMah int) (APA, error) {
	if capacityMah <= 0 {
		return 0, pkgerrors.Errorf("battery capacity must be positive, got %d mAh", capacityMah)
	}

	best := APATable[0]
	bestDiff := absInt(capacityMah - best.CapacityMah)
	for _, row := range APATable[1:] {
		if d := absInt(capacityMah - row.CapacityMah); d < bestDiff {
			best, bestDiff = row, d
		}
	}

	return best.Code, nil
}

func absInt(i int) int {
	if i < 0 {
		return -i
	}
	return i
}
