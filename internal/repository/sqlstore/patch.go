package sqlstore

import (
	"strings"

	"github.com/CameronXie/order-management/internal/domain"
)

// assignment is one column = value pair of an UPDATE statement. Columns
// always come from the constants below, never from caller input.
type assignment struct {
	column string
	value  any
}

type assignments []assignment

const (
	columnDate     = "date"
	columnClientID = "client_id"
	columnStatus   = "status"
	columnName     = "name"
	columnPrice    = "price"
	columnEmail    = "email"
)

// orderAssignments collects the columns an order patch explicitly supplies.
func orderAssignments(patch domain.OrderPatch) assignments {
	var set assignments
	if patch.Date != nil {
		set = append(set, assignment{column: columnDate, value: patch.Date.UTC()})
	}
	if patch.ClientID != nil {
		set = append(set, assignment{column: columnClientID, value: *patch.ClientID})
	}
	if patch.Status != nil {
		set = append(set, assignment{column: columnStatus, value: string(*patch.Status)})
	}

	return set
}

func productAssignments(product *domain.Product) assignments {
	return assignments{
		{column: columnName, value: product.Name},
		{column: columnPrice, value: product.Price},
	}
}

func clientAssignments(client *domain.Client) assignments {
	return assignments{
		{column: columnName, value: client.Name},
		{column: columnEmail, value: client.Email},
	}
}

// update renders "UPDATE table SET c1 = ?, c2 = ? WHERE key = ?" and its arguments.
func (a assignments) update(table, keyColumn string, key any) (string, []any) {
	columns := make([]string, len(a))
	args := make([]any, 0, len(a)+1)
	for i, as := range a {
		columns[i] = as.column + " = ?"
		args = append(args, as.value)
	}
	args = append(args, key)

	return "UPDATE " + table + " SET " + strings.Join(columns, ", ") + " WHERE " + keyColumn + " = ?", args
}
