package forensics

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"sort"
)

// textureFloor is the luminance variance below which a block is too flat to fingerprint
const textureFloor = 25.0

type block struct {
	bx, by   int
	noise    float64 // variance of the Laplacian residual
	variance float64 // variance of luminance
}

type blockGrid struct {
	lum    [][]float64
	size   int
	cols   int
	rows   int
	blocks []block
}

func newBlockGrid(lum [][]float64, size int) *blockGrid {
	g := &blockGrid{lum: lum, size: size}
	if len(lum) == 0 {
		return g
	}
	g.rows = len(lum) / size
	g.cols = len(lum[0]) / size

	for by := 0; by < g.rows; by++ {
		for bx := 0; bx < g.cols; bx++ {
			g.blocks = append(g.blocks, g.measure(bx, by))
		}
	}
	return g
}

// measure computes the noise and texture statistics of one block
func (g *blockGrid) measure(bx, by int) block {
	h, w := len(g.lum), len(g.lum[0])
	var lapSum, lapSq, lumSum, lumSq float64
	var lapN, lumN int

	for y := by * g.size; y < (by+1)*g.size; y++ {
		for x := bx * g.size; x < (bx+1)*g.size; x++ {
			p := g.lum[y][x]
			lumSum += p
			lumSq += p * p
			lumN++

			if x == 0 || y == 0 || x == w-1 || y == h-1 {
				continue
			}
			l := 4*p - g.lum[y-1][x] - g.lum[y+1][x] - g.lum[y][x-1] - g.lum[y][x+1]
			lapSum += l
			lapSq += l * l
			lapN++
		}
	}

	return block{
		bx:       bx,
		by:       by,
		noise:    variance(lapSum, lapSq, lapN),
		variance: variance(lumSum, lumSq, lumN),
	}
}

// noiseRegions counts 4-connected groups of blocks whose noise level is an
// outlier: |noise - median| > max(3.5 * 1.4826 * MAD, 0.5 * median)
func (g *blockGrid) noiseRegions() int {
	noise := make([]float64, len(g.blocks))
	for i, b := range g.blocks {
		noise[i] = b.noise
	}
	med := median(noise)

	dev := make([]float64, len(noise))
	for i, n := range noise {
		dev[i] = math.Abs(n - med)
	}
	threshold := math.Max(3.5*1.4826*median(dev), 0.5*med)

	flagged := make([]bool, len(g.blocks))
	for i, n := range noise {
		flagged[i] = math.Abs(n-med) > threshold
	}
	return g.components(flagged)
}

// copyMoveRegions counts groups of identical textured blocks found at
// positions that do not touch each other
func (g *blockGrid) copyMoveRegions() int {
	groups := make(map[uint64][]block)
	for _, b := range g.blocks {
		if b.variance < textureFloor {
			continue
		}
		h := g.fingerprint(b)
		groups[h] = append(groups[h], b)
	}

	regions := 0
	for _, members := range groups {
		if len(members) < 2 {
			continue
		}
	pairs:
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				if !touching(members[i], members[j]) {
					regions++
					break pairs
				}
			}
		}
	}
	return regions
}

// fingerprint hashes the block's luminance quantized to 16 levels
func (g *blockGrid) fingerprint(b block) uint64 {
	h := fnv.New64a()
	var buf [2]byte
	for y := b.by * g.size; y < (b.by+1)*g.size; y++ {
		for x := b.bx * g.size; x < (b.bx+1)*g.size; x++ {
			binary.LittleEndian.PutUint16(buf[:], uint16(g.lum[y][x])/16)
			_, _ = h.Write(buf[:])
		}
	}
	return h.Sum64()
}

// components counts 4-connected groups of flagged blocks
func (g *blockGrid) components(flagged []bool) int {
	seen := make([]bool, len(flagged))
	count := 0
	for start := range flagged {
		if !flagged[start] || seen[start] {
			continue
		}
		count++
		stack := []int{start}
		seen[start] = true
		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := i%g.cols, i/g.cols
			for _, n := range [][2]int{{x - 1, y}, {x + 1, y}, {x, y - 1}, {x, y + 1}} {
				if n[0] < 0 || n[1] < 0 || n[0] >= g.cols || n[1] >= g.rows {
					continue
				}
				j := n[1]*g.cols + n[0]
				if flagged[j] && !seen[j] {
					seen[j] = true
					stack = append(stack, j)
				}
			}
		}
	}
	return count
}

func touching(a, b block) bool {
	dx, dy := a.bx-b.bx, a.by-b.by
	return dx >= -1 && dx <= 1 && dy >= -1 && dy <= 1
}

func variance(sum, sq float64, n int) float64 {
	if n == 0 {
		return 0
	}
	mean := sum / float64(n)
	return math.Max(0, sq/float64(n)-mean*mean)
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
