package parser

import (
	"strings"
	"testing"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	for _, id := range []string{"chase", "mint", "robinhood", "applecard"} {
		if _, ok := r.Get(id); !ok {
			t.Errorf("expected parser for %q", id)
		}
	}
	if _, ok := r.Get("quickbooks"); ok {
		t.Error("unexpected parser for unknown format")
	}

	ids := r.IDs()
	if len(ids) != 4 {
		t.Fatalf("expected 4 format ids, got %v", ids)
	}
	for i := 1; i < len(ids); i++ {
		if ids[i-1] >= ids[i] {
			t.Fatalf("ids not sorted: %v", ids)
		}
	}
}

func TestChaseParser_CommaDelimited(t *testing.T) {
	content := strings.Join([]string{
		"Transaction Date,Post Date,Description,Category,Type,Amount,Memo",
		"01/15/2024,01/16/2024,STARBUCKS STORE 123,Food & Drink,Sale,-4.50,",
		"01/17/2024,01/18/2024,PAYROLL DEPOSIT,Income,Payment,2500.00,",
		"",
	}, "\n")

	rows := (&ChaseParser{}).Parse(content)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Description != "STARBUCKS STORE 123" || rows[0].Amount.String() != "-4.5" {
		t.Errorf("unexpected first row: %+v", rows[0])
	}
	if rows[0].BankCategory != "Food & Drink" {
		t.Errorf("unexpected bank category: %q", rows[0].BankCategory)
	}
	if rows[1].Date.Format("2006-01-02") != "2024-01-17" {
		t.Errorf("unexpected second row date: %s", rows[1].Date)
	}
}

func TestChaseParser_TabDelimited(t *testing.T) {
	content := strings.Join([]string{
		"Transaction Date\tPost Date\tDescription\tCategory\tType\tAmount\tMemo",
		"01/15/2024\t01/16/2024\tGROCERY STORE\tGroceries\tSale\t-82.17\t",
		"",
	}, "\n")

	rows := (&ChaseParser{}).Parse(content)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].Description != "GROCERY STORE" || rows[0].Amount.String() != "-82.17" {
		t.Errorf("unexpected row: %+v", rows[0])
	}
}

func TestChaseParser_MalformedRowTolerance(t *testing.T) {
	lines := []string{"Transaction Date,Post Date,Description,Category,Type,Amount,Memo"}
	for i := 0; i < 10; i++ {
		lines = append(lines, "01/15/2024,01/16/2024,Valid Merchant,Shopping,Sale,-10.00,")
	}
	// Two rows with no parseable amount.
	lines = append(lines,
		"01/15/2024,01/16/2024,Broken Row,Shopping,Sale,not-a-number,",
		"01/15/2024,01/16/2024,Another Broken,Shopping,Sale,,",
		"")

	rows := (&ChaseParser{}).Parse(strings.Join(lines, "\n"))
	if len(rows) != 10 {
		t.Fatalf("expected exactly 10 rows, got %d", len(rows))
	}
}

func TestChaseParser_BOMAndTwoDigitYear(t *testing.T) {
	content := "\uFEFFTransaction Date,Post Date,Description,Category,Type,Amount,Memo\n" +
		"1/2/05,1/3/05,OLD STATEMENT,Misc,Sale,-1.00,\n" +
		"1/2/85,1/3/85,OLDER STATEMENT,Misc,Sale,-2.00,\n"

	rows := (&ChaseParser{}).Parse(content)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if got := rows[0].Date.Year(); got != 2005 {
		t.Errorf("two-digit year 05 resolved to %d, want 2005", got)
	}
	if got := rows[1].Date.Year(); got != 1985 {
		t.Errorf("two-digit year 85 resolved to %d, want 1985", got)
	}
}

func TestMintParser_DebitCreditSign(t *testing.T) {
	content := strings.Join([]string{
		"Date,Description,Original Description,Amount,Transaction Type,Category,Account Name,Labels,Notes",
		"1/15/2024,Coffee Shop,COFFEE SHOP 42,4.50,debit,Food & Dining,Checking,,",
		"1/16/2024,Paycheck,EMPLOYER INC,2500.00,credit,Income,Checking,,",
		"",
	}, "\n")

	rows := (&MintParser{}).Parse(content)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Amount.String() != "-4.5" {
		t.Errorf("debit not negated: %s", rows[0].Amount)
	}
	if rows[1].Amount.String() != "2500" {
		t.Errorf("credit sign wrong: %s", rows[1].Amount)
	}
	if rows[0].BankCategory != "Food & Dining" {
		t.Errorf("unexpected category: %q", rows[0].BankCategory)
	}
}

func TestRobinhoodParser_AccountingAmounts(t *testing.T) {
	content := strings.Join([]string{
		"Activity Date,Process Date,Settle Date,Instrument,Description,Trans Code,Quantity,Price,Amount",
		"1/5/2024,1/5/2024,1/8/2024,AAPL,Apple Inc,Buy,10,$185.50,($1855.00)",
		"1/6/2024,1/6/2024,1/9/2024,,Deposit from bank,ACH,,,\"$12.34\"",
		"",
	}, "\n")

	rows := (&RobinhoodParser{}).Parse(content)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Amount.String() != "-1855" {
		t.Errorf("accounting negative: got %s, want -1855", rows[0].Amount)
	}
	if rows[1].Amount.String() != "12.34" {
		t.Errorf("plain amount: got %s, want 12.34", rows[1].Amount)
	}
}

func TestRobinhoodParser_DropsNonMonetaryRows(t *testing.T) {
	content := strings.Join([]string{
		"Activity Date,Process Date,Settle Date,Instrument,Description,Trans Code,Quantity,Price,Amount",
		// Stock split: valid date and description, no amount.
		"1/5/2024,1/5/2024,1/5/2024,AAPL,Stock Split,SPL,10,,",
		"1/6/2024,1/6/2024,1/9/2024,AAPL,Apple Inc,Sell,5,$190.00,$950.00",
		"",
	}, "\n")

	rows := (&RobinhoodParser{}).Parse(content)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row (split dropped), got %d", len(rows))
	}
	if rows[0].Description != "Apple Inc" {
		t.Errorf("unexpected surviving row: %+v", rows[0])
	}
}

func TestRobinhoodParser_DerivedDescription(t *testing.T) {
	tests := []struct {
		name     string
		row      string
		expected string
	}{
		{
			"quantity and price kept",
			"1/5/2024,1/5/2024,1/8/2024,MSFT,,Buy,10,$400.00,($4000.00)",
			"MSFT Buy 10 $400.00",
		},
		{
			"quantity of 1 omitted",
			"1/5/2024,1/5/2024,1/8/2024,VOO,,Buy,1,$500.00,($500.00)",
			"VOO Buy $500.00",
		},
		{
			"zero price omitted",
			"1/5/2024,1/5/2024,1/8/2024,AAPL,,CDIV,0,$0.00,$2.41",
			"AAPL CDIV",
		},
		{
			"explicit description wins",
			"1/5/2024,1/5/2024,1/8/2024,AAPL,Dividend payment,CDIV,0,$0.00,$2.41",
			"Dividend payment",
		},
	}

	header := "Activity Date,Process Date,Settle Date,Instrument,Description,Trans Code,Quantity,Price,Amount"
	for _, tc := range tests {
		rows := (&RobinhoodParser{}).Parse(header + "\n" + tc.row + "\n")
		if len(rows) != 1 {
			t.Errorf("%s: expected 1 row, got %d", tc.name, len(rows))
			continue
		}
		if rows[0].Description != tc.expected {
			t.Errorf("%s: description = %q, want %q", tc.name, rows[0].Description, tc.expected)
		}
	}
}

func TestAppleCardParser_MultiLineMerchantAndSign(t *testing.T) {
	content := "Transaction Date,Clearing Date,Description,Merchant,Category,Type,Amount (USD),Purchase By\n" +
		"01/10/2024,01/11/2024,\"ACME MARKET\n123 MAIN ST\",Acme,Grocery,Purchase,54.30,Jordan\n" +
		"01/12/2024,01/12/2024,ACH Deposit,Apple,Payment,Payment,-200.00,Jordan\n"

	rows := (&AppleCardParser{}).Parse(content)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Description != "ACME MARKET 123 MAIN ST" {
		t.Errorf("multi-line description not collapsed: %q", rows[0].Description)
	}
	if rows[0].Amount.String() != "-54.3" {
		t.Errorf("purchase not negated: %s", rows[0].Amount)
	}
	if rows[1].Amount.String() != "200" {
		t.Errorf("payment sign wrong: %s", rows[1].Amount)
	}
}
