package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBatchFiles_FitsInOne(t *testing.T) {
	files := []CategorizedFile{
		{EnrichedFileChange: EnrichedFileChange{TokenEstimate: 1000}},
		{EnrichedFileChange: EnrichedFileChange{TokenEstimate: 2000}},
		{EnrichedFileChange: EnrichedFileChange{TokenEstimate: 500}},
	}

	batches := BatchFiles(files, 80000)
	assert.Len(t, batches, 1)
	assert.Len(t, batches[0].Files, 3)
	assert.Equal(t, 3500, batches[0].TotalTokens)
}

func TestBatchFiles_SplitsLarge(t *testing.T) {
	files := []CategorizedFile{
		{EnrichedFileChange: EnrichedFileChange{TokenEstimate: 70000}}, // > 80% of 80000
		{EnrichedFileChange: EnrichedFileChange{TokenEstimate: 1000}},
		{EnrichedFileChange: EnrichedFileChange{TokenEstimate: 2000}},
	}

	batches := BatchFiles(files, 80000)
	assert.GreaterOrEqual(t, len(batches), 2)

	foundSolo := false
	for _, b := range batches {
		if len(b.Files) == 1 && b.TotalTokens == 70000 {
			foundSolo = true
			break
		}
	}
	assert.True(t, foundSolo, "large file should be in a solo batch")
}

func TestBatchFiles_Empty(t *testing.T) {
	batches := BatchFiles(nil, 80000)
	assert.Nil(t, batches)

	batches = BatchFiles([]CategorizedFile{}, 80000)
	assert.Nil(t, batches)
}

func TestParseUnifiedDiff(t *testing.T) {
	diff := `diff --git a/internal/foo.go b/internal/foo.go
index 111..222 100644
--- a/internal/foo.go
+++ b/internal/foo.go
@@ -1,3 +1,4 @@
 package foo
+// added line
 func Foo() {}
-// removed line
`
	changes := ParseUnifiedDiff(diff)
	if assert.Len(t, changes, 1) {
		assert.Equal(t, "internal/foo.go", changes[0].NewName)
		assert.Equal(t, 1, changes[0].Additions)
		assert.Equal(t, 1, changes[0].Deletions)
	}
}

func TestParseUnifiedDiff_NewFile(t *testing.T) {
	diff := `diff --git a/new.go b/new.go
new file mode 100644
index 000..111
--- /dev/null
+++ b/new.go
@@ -0,0 +1,2 @@
+package new
+func New() {}
`
	changes := ParseUnifiedDiff(diff)
	if assert.Len(t, changes, 1) {
		assert.True(t, changes[0].IsNew)
		assert.Equal(t, 2, changes[0].Additions)
	}
}
