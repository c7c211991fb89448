package world

import "github.com/drevilslab/openbw/internal/core/invariant"

// NumSightRanges is the number of distinct sight radii, in tiles.
const NumSightRanges = 12

// SightNode is one tile of a sight mask. Prev and Prev2 index the nodes
// vision has to pass through to reach this one; -1 is a tile outside the
// mask.
type SightNode struct {
	X, Y           int
	MapIndexOffset int
	Prev, Prev2    int
	PrevCount      int
}

// SightValues is the reveal mask for one sight range. Nodes are ordered
// from the centre outwards: the first MinMaskSize always reveal, the next
// ExtMaskedCount only if a tile on the way is not blocked by height.
type SightValues struct {
	MaxWidth, MaxHeight int
	MinWidth, MinHeight int
	MinMaskSize         int
	ExtMaskedCount      int
	Nodes               []SightNode
}

// GenerateSightValues builds the masks for every sight range of a map that
// is mapTileWidth tiles wide.
func GenerateSightValues(mapTileWidth int) [NumSightRanges]SightValues {
	var out [NumSightRanges]SightValues
	for i := range out {
		out[i] = generateSightMask(3+i*2, mapTileWidth)
	}
	return out
}

func generateSightMask(size, mapTileWidth int) SightValues {
	v := SightValues{MaxWidth: size, MaxHeight: size, MinWidth: 3, MinHeight: 3}
	masked := make([]bool, v.MaxWidth*v.MaxHeight)
	node := make([]int, len(masked))
	for i := range node {
		node[i] = -1
	}
	mask := func(index int) {
		if index < 0 || index >= len(masked) {
			invariant.Fatalf("sight mask index %d out of range (size %d)", index, len(masked))
		}
		masked[index] = true
	}

	v.MinMaskSize = v.MinWidth * v.MinHeight
	offx := v.MaxWidth/2 - v.MinWidth/2
	offy := v.MaxHeight/2 - v.MinHeight/2
	for y := 0; y < v.MinHeight; y++ {
		for x := 0; x < v.MinWidth; x++ {
			mask((offy+y)*v.MaxWidth + offx + x)
		}
	}

	// 以增量圓方程描出外框
	offset := v.MaxHeight/2 - v.MaxWidth/2
	halfWidth := v.MaxWidth / 2
	maxX2 := halfWidth
	maxX1 := halfWidth * 2
	curX1 := 0
	curX2 := halfWidth
	maxI := halfWidth
	cursize1 := 0
	cursize2 := halfWidth * halfWidth
	minCursize2 := halfWidth * (halfWidth - 1)
	minCursize2Chg := halfWidth * 2
	for i := 0; ; {
		if curX1 <= maxX1 {
			for j := 0; j <= maxX1-curX1; j++ {
				mask((offset+curX2)*v.MaxWidth + curX1 + j)
				mask((offset+maxX2)*v.MaxWidth + curX1 + j)
			}
		}
		if curX2 <= maxX2 {
			for j := 0; j <= maxX2-curX2; j++ {
				mask((offset+curX1)*v.MaxWidth + curX2 + j)
				mask((offset+maxX1)*v.MaxWidth + curX2 + j)
			}
		}
		cursize2 += 1 - cursize1 - 2
		cursize1 += 2
		curX2--
		maxX2++
		if cursize2 <= minCursize2 {
			maxI--
			curX1++
			maxX1--
			minCursize2 -= minCursize2Chg - 2
			minCursize2Chg -= 2
		}
		i++
		if i > maxI {
			break
		}
	}

	count := 0
	for _, m := range masked {
		if m {
			count++
		}
	}
	v.ExtMaskedCount = count - v.MinMaskSize
	v.Nodes = make([]SightNode, count)
	center := v.MaxHeight/2*v.MaxWidth + v.MaxWidth/2
	node[center] = 0

	at := func(x, y int) int {
		i := center + y*v.MaxWidth + x
		if i < 0 || i >= len(masked) {
			invariant.Fatalf("sight mask offset (%d, %d) out of range", x, y)
		}
		return i
	}

	dirX := [4]int{1, 0, -1, 0}
	dirY := [4]int{0, 1, 0, -1}
	next := 1
	curX, curY := -1, -1
	added := 1
	for i := 2; added < count; i += 2 {
		for dir := 0; dir < 4; dir++ {
			var thisX, thisY int
			doN := func(n int) {
				for k := 0; k < n; k++ {
					if masked[at(thisX, thisY)] && (thisX != 0 || thisY != 0) {
						e := &v.Nodes[next]
						idx := next
						next++
						prevX, prevY := stepToward0(thisX), stepToward0(thisY)
						if abs(prevX) == abs(prevY) || (thisX == 0 && dirX[dir] != 0) || (thisY == 0 && dirY[dir] != 0) {
							e.Prev = node[at(prevX, prevY)]
							e.Prev2 = e.Prev
							e.PrevCount = 1
						} else {
							e.Prev = node[at(prevX, prevY)]
							prev2X, prev2Y := prevX, prevY
							if abs(prev2X) <= abs(prev2Y) {
								if thisX >= 0 {
									prev2X++
								} else {
									prev2X--
								}
							} else {
								if thisY >= 0 {
									prev2Y++
								} else {
									prev2Y--
								}
							}
							e.Prev2 = node[at(prev2X, prev2Y)]
							e.PrevCount = 2
						}
						e.MapIndexOffset = thisY*mapTileWidth + thisX
						e.X, e.Y = thisX, thisY
						node[at(thisX, thisY)] = idx
						added++
					}
					thisX += dirX[dir]
					thisY += dirY[dir]
				}
			}
			maxLen := [4]int{v.MaxHeight, v.MaxWidth, v.MaxHeight, v.MaxWidth}
			if i > maxLen[dir] {
				thisX = curX + i*dirX[dir]
				thisY = curY + i*dirY[dir]
				doN(1)
			} else {
				thisX = curX + dirX[dir]
				thisY = curY + dirY[dir]
				doN(min(maxLen[(dir+1)%4]-1, i))
			}
			curX = thisX - dirX[dir]
			curY = thisY - dirY[dir]
		}
		if i < v.MaxWidth-1 {
			curX--
		}
		if i < v.MaxHeight-1 {
			curY--
		}
	}
	return v
}

func stepToward0(v int) int {
	switch {
	case v > 0:
		return v - 1
	case v < 0:
		return v + 1
	}
	return 0
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
