package produce

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/litigo/ediscovery-api/internal/models"
)

func TestRenderDAT(t *testing.T) {
	records := []models.LoadFileRecord{
		{
			BegBates:   "ABC000001",
			EndBates:   "ABC000003",
			ImagePath:  "IMAGES/ABC000001.png",
			NativePath: "NATIVES/contract.pdf",
			PageCount:  3,
		},
		{
			BegBates:   "ABC000004",
			EndBates:   "ABC000004",
			ImagePath:  "IMAGES/ABC000004.png",
			NativePath: "NATIVES/model.xlsx",
			PageCount:  1,
		},
	}

	out := string(RenderDAT(records))

	lines := strings.Split(out, "\r\n")
	require.Len(t, lines, 4) // header, two rows, trailing terminator
	require.Equal(t, "BEGBATES\tENDBATES\tIMAGEPATH\tNATIVEPATH\tPAGECOUNT", lines[0])
	require.Equal(t, "ABC000001\tABC000003\tIMAGES/ABC000001.png\tNATIVES/contract.pdf\t3", lines[1])
	require.Equal(t, "ABC000004\tABC000004\tIMAGES/ABC000004.png\tNATIVES/model.xlsx\t1", lines[2])
	require.Empty(t, lines[3])
}

func TestRenderDATPreservesRecordOrder(t *testing.T) {
	records := []models.LoadFileRecord{
		{BegBates: "P000002", EndBates: "P000002", PageCount: 1},
		{BegBates: "P000001", EndBates: "P000001", PageCount: 1},
	}

	out := string(RenderDAT(records))

	require.Less(t, strings.Index(out, "P000002"), strings.Index(out, "P000001"))
}

func TestRenderOPTMatchesDATLayout(t *testing.T) {
	records := []models.LoadFileRecord{
		{BegBates: "X000001", EndBates: "X000002", ImagePath: "IMAGES/X000001.png", NativePath: "NATIVES/a.eml", PageCount: 2},
	}

	require.Equal(t, RenderDAT(records), RenderOPT(records))
}

func TestRenderDATEmptyScope(t *testing.T) {
	out := string(RenderDAT(nil))

	require.Equal(t, "BEGBATES\tENDBATES\tIMAGEPATH\tNATIVEPATH\tPAGECOUNT\r\n", out)
}
