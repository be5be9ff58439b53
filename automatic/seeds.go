package automatic

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"lukechampine.com/frand"
)

const seedFileHeader = "# mnk self-play seeds, one per game (32 bytes, base64 URL-safe)\n"

// GenerateSeeds returns n random opening seeds.
func GenerateSeeds(n int) [][32]byte {
	seeds := make([][32]byte, n)
	for i := range seeds {
		frand.Read(seeds[i][:])
	}
	return seeds
}

func encodeSeed(seed [32]byte) string {
	return base64.RawURLEncoding.EncodeToString(seed[:])
}

func decodeSeed(s string) ([32]byte, error) {
	var seed [32]byte
	decoded, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return seed, err
	}
	if len(decoded) != len(seed) {
		return seed, fmt.Errorf("seed has %d bytes, expected %d", len(decoded), len(seed))
	}
	copy(seed[:], decoded)
	return seed, nil
}

// SaveSeeds writes seeds so that a batch of games can be replayed later.
func SaveSeeds(seeds [][32]byte, path string) error {
	var sb strings.Builder
	sb.WriteString(seedFileHeader)
	for _, seed := range seeds {
		sb.WriteString(encodeSeed(seed))
		sb.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(sb.String()), 0o644)
}

// LoadSeeds reads a file written by SaveSeeds. Blank lines and # comments
// are skipped.
func LoadSeeds(path string) ([][32]byte, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var seeds [][32]byte
	for i, line := range strings.Split(string(contents), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		seed, err := decodeSeed(line)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, i+1, err)
		}
		seeds = append(seeds, seed)
	}
	return seeds, nil
}
