package listing

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/patrickwarner/troyconsole/internal/models"
)

// utf8BOM makes spreadsheet tools detect UTF-8 for Korean labels.
const utf8BOM = "\uFEFF"

// Column is one CSV column of a list export.
type Column[T any] struct {
	Header string
	Value  func(T) string
}

// WriteCSV writes a header row followed by one row per item.
func WriteCSV[T any](w io.Writer, cols []Column[T], items []T) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}
	cw := csv.NewWriter(w)
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.Header
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	row := make([]string, len(cols))
	for _, it := range items {
		for i, c := range cols {
			row[i] = c.Value(it)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func num(n models.Number) string { return strconv.FormatFloat(n.Float(), 'f', -1, 64) }

var CampaignColumns = []Column[models.Campaign]{
	{"ID", func(c models.Campaign) string { return c.ID.String() }},
	{"코드", func(c models.Campaign) string { return c.Code }},
	{"캠페인명", func(c models.Campaign) string { return c.Title }},
	{"상태", func(c models.Campaign) string { return c.Status.Label().Text }},
	{"예산", func(c models.Campaign) string { return num(c.Budget) }},
	{"목표 건수", func(c models.Campaign) string { return num(c.TargetCount) }},
	{"시작일", func(c models.Campaign) string { return c.StartDate }},
	{"종료일", func(c models.Campaign) string { return c.EndDate }},
}

var ProgressColumns = []Column[models.ProgressRecord]{
	{"ID", func(p models.ProgressRecord) string { return p.ID.String() }},
	{"캠페인명", func(p models.ProgressRecord) string { return p.Title }},
	{"상태", func(p models.ProgressRecord) string { return p.Status.Label().Text }},
	{"진행률", func(p models.ProgressRecord) string { return num(p.ProgressPercentage) }},
	{"완료 건수", func(p models.ProgressRecord) string { return num(p.CompletedCount) }},
	{"목표 건수", func(p models.ProgressRecord) string { return num(p.TargetCount) }},
}

var OrganizationColumns = []Column[models.Organization]{
	{"ID", func(o models.Organization) string { return o.ID.String() }},
	{"업체명", func(o models.Organization) string { return o.DisplayName() }},
	{"담당자", func(o models.Organization) string { return o.ManagerName }},
	{"연락처", func(o models.Organization) string { return o.Phone }},
	{"이메일", func(o models.Organization) string { return o.Email }},
	{"승인상태", func(o models.Organization) string { return o.ApprovalStatus.Label().Text }},
	{"가입일", func(o models.Organization) string { return o.CreatedAt }},
}

var SettlementColumns = []Column[models.Settlement]{
	{"정산번호", func(s models.Settlement) string { return s.ID.String() }},
	{"파트너", func(s models.Settlement) string { return s.PartnerName }},
	{"고객사", func(s models.Settlement) string { return s.CustomerName }},
	{"리뷰 수", func(s models.Settlement) string { return num(s.ReviewCount) }},
	{"단가", func(s models.Settlement) string { return num(s.UnitPrice) }},
	{"정산금액", func(s models.Settlement) string { return num(s.Amount) }},
	{"상태", func(s models.Settlement) string { return s.Status.Label().Text }},
	{"요청일", func(s models.Settlement) string { return s.CreatedAt }},
}

var PaymentColumns = []Column[models.Payment]{
	{"결제번호", func(p models.Payment) string { return p.ID.String() }},
	{"캠페인", func(p models.Payment) string { return p.CampaignName }},
	{"고객", func(p models.Payment) string { return p.CustomerName }},
	{"금액", func(p models.Payment) string { return num(p.Amount) }},
	{"결제수단", func(p models.Payment) string { return p.Method }},
	{"상태", func(p models.Payment) string { return p.Bucket().Label().Text }},
	{"결제일", func(p models.Payment) string { return p.CreatedAt }},
}

var NotificationColumns = []Column[models.Notification]{
	{"ID", func(n models.Notification) string { return n.ID.String() }},
	{"유형", func(n models.Notification) string { return n.Type.Style().Text }},
	{"제목", func(n models.Notification) string { return n.Title }},
	{"내용", func(n models.Notification) string { return n.Message }},
	{"읽음", func(n models.Notification) string { return strconv.FormatBool(bool(n.IsRead)) }},
	{"일시", func(n models.Notification) string { return n.CreatedAt }},
}
