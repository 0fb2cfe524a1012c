package treesitter

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ParserABIVersion reads the "#define LANGUAGE_VERSION N" line the generator
// writes near the top of parser.c.
func ParserABIVersion(parserPath string) (int, error) {
	f, err := os.Open(parserPath)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) != 3 || fields[0] != "#define" || fields[1] != "LANGUAGE_VERSION" {
			continue
		}
		v, err := strconv.Atoi(fields[2])
		if err != nil {
			return 0, fmt.Errorf("%s: malformed LANGUAGE_VERSION %q", parserPath, fields[2])
		}
		return v, nil
	}
	if err := sc.Err(); err != nil {
		return 0, err
	}
	return 0, fmt.Errorf("%s: no LANGUAGE_VERSION definition", parserPath)
}

// CheckABIVersion reports whether v lies in the range the runtime accepts.
func CheckABIVersion(v int) error {
	lo, hi := MinCompatibleLanguageVersion(), LanguageVersion()
	if v < lo || v > hi {
		return fmt.Errorf("abi version %d outside supported range %d..%d", v, lo, hi)
	}
	return nil
}
