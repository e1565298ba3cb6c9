// Package harnesstest provides a fake compiler for exercising the
// harness without a C toolchain. The fake compiler is a shell script
// that writes a shell-script benchmark whose reported average time is
// haystack size + needle size.
package harnesstest

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/weiihann/strbench/harness"
)

// Artifact selects how the generated benchmark behaves.
type Artifact int

const (
	// ArtifactOK writes a header, a partial row and a final row.
	ArtifactOK Artifact = iota
	// ArtifactBlankTail is ArtifactOK followed by blank lines.
	ArtifactBlankTail
	// ArtifactFail exits non-zero.
	ArtifactFail
	// ArtifactEmpty creates an empty output file.
	ArtifactEmpty
	// ArtifactNoOutput exits zero without creating the output file.
	ArtifactNoOutput
	// ArtifactMalformed writes a non-numeric time field.
	ArtifactMalformed
)

// Options configures the fake compiler.
type Options struct {
	FailBuild bool
	Artifact  Artifact
	// PathLog, when set, receives one line per artifact path and per
	// output path used.
	PathLog string
}

const compilerScript = `#!/bin/sh
out=""
hay=0
needle=0
while [ $# -gt 0 ]; do
	case "$1" in
	-o) out="$2"; shift ;;
	-DBENCH_HAY_SZ=*) hay="${1#-DBENCH_HAY_SZ=}" ;;
	-DBENCH_NEEDLE_SZ=*) needle="${1#-DBENCH_NEEDLE_SZ=}" ;;
	esac
	shift
done
@BUILD@
@LOGBIN@
cat > "$out" <<EOF
#!/bin/sh
res=""
for arg in "\$@"; do
	case "\$arg" in
	--output=*) res="\${arg#--output=}" ;;
	esac
done
@LOGRES@
@BODY@
EOF
chmod +x "$out"
`

var bodies = map[Artifact]string{
	ArtifactOK: `echo "name, mean (ns), stddev (%), confidence (%)," > "\$res"
echo "partial, 999999, 0, 0.5," >> "\$res"
echo "bench, $((hay + needle)), 0.1, 0.05," >> "\$res"`,
	ArtifactBlankTail: `echo "name, mean (ns), stddev (%), confidence (%)," > "\$res"
echo "bench, $((hay + needle)), 0.1, 0.05," >> "\$res"
echo "" >> "\$res"
echo "   " >> "\$res"`,
	ArtifactFail: `echo "benchmark crashed" >&2
exit 3`,
	ArtifactEmpty:     `: > "\$res"`,
	ArtifactNoOutput:  `exit 0`,
	ArtifactMalformed: `echo "bench, fast, 0, 0.05," > "\$res"`,
}

// Compiler writes the fake compiler into a test directory and returns
// a harness.Compiler pointing at it. The test is skipped on platforms
// without /bin/sh.
func Compiler(t testing.TB, opts Options) harness.Compiler {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("fake compiler requires /bin/sh")
	}

	build := ""
	if opts.FailBuild {
		build = "echo \"strstrbench.c: error: unknown operator\" >&2\nexit 1"
	}

	logBin, logRes := "", ""
	if opts.PathLog != "" {
		logBin = `echo "$out" >> "` + opts.PathLog + `"`
		logRes = `echo "\$res" >> "` + opts.PathLog + `"`
	}

	script := strings.NewReplacer(
		"@BUILD@", build,
		"@LOGBIN@", logBin,
		"@LOGRES@", logRes,
		"@BODY@", bodies[opts.Artifact],
	).Replace(compilerScript)

	path := filepath.Join(t.TempDir(), "fakecc")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake compiler: %v", err)
	}

	return harness.Compiler{
		Path:   path,
		Source: "strstrbench.c",
		Flags:  harness.DefaultFlags(),
	}
}
