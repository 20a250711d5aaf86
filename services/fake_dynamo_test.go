package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"

	"penpal_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeDB is an in-memory DB implementation that honors the condition
// and update expressions the services actually use, including the
// all-or-nothing semantics of TransactWriteItems.
type fakeDB struct {
	mu     sync.Mutex
	tables map[string]map[string]map[string]types.AttributeValue
}

func newFakeDB() *fakeDB {
	return &fakeDB{tables: map[string]map[string]map[string]types.AttributeValue{}}
}

var fakeKeySchema = map[string][]string{
	models.UsersTable:              {"userId"},
	models.EmailLocksTable:         {"email"},
	models.ProfilesTable:           {"userId"},
	models.MatchesTable:            {"matchId"},
	models.ConnectionRequestsTable: {"pairKey"},
	models.AddressesTable:          {"userId"},
	models.MessagesTable:           {"matchId", "messageId"},
	models.LetterEventsTable:       {"eventId"},
	models.ScanAssetsTable:         {"scanId"},
	models.BlocksTable:             {"blockerId", "blockedId"},
	models.ReportsTable:            {"reportId"},
	models.AuditLogsTable:          {"userId", "entryId"},
}

func sval(av types.AttributeValue) string {
	if s, ok := av.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func (f *fakeDB) keyOf(tableName string, item map[string]types.AttributeValue) string {
	parts := []string{}
	for _, attr := range fakeKeySchema[tableName] {
		parts = append(parts, sval(item[attr]))
	}
	return strings.Join(parts, "|")
}

func (f *fakeDB) table(tableName string) map[string]map[string]types.AttributeValue {
	if f.tables[tableName] == nil {
		f.tables[tableName] = map[string]map[string]types.AttributeValue{}
	}
	return f.tables[tableName]
}

func copyItem(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	if item == nil {
		return nil
	}
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}

func equalAV(a, b types.AttributeValue) bool {
	switch av := a.(type) {
	case *types.AttributeValueMemberS:
		bv, ok := b.(*types.AttributeValueMemberS)
		return ok && av.Value == bv.Value
	case *types.AttributeValueMemberBOOL:
		bv, ok := b.(*types.AttributeValueMemberBOOL)
		return ok && av.Value == bv.Value
	case *types.AttributeValueMemberN:
		bv, ok := b.(*types.AttributeValueMemberN)
		return ok && av.Value == bv.Value
	}
	return false
}

func resolveName(token string, names map[string]string) string {
	if strings.HasPrefix(token, "#") {
		if resolved, ok := names[token]; ok {
			return resolved
		}
	}
	return token
}

// evalCondition understands the expression subset the services emit:
// attribute_exists / attribute_not_exists, equality clauses, and flat
// AND / OR combinations of those.
func evalCondition(cond string, existing map[string]types.AttributeValue, names map[string]string, values map[string]types.AttributeValue) bool {
	for _, branch := range strings.Split(cond, " OR ") {
		all := true
		for _, clause := range strings.Split(branch, " AND ") {
			if !evalClause(strings.TrimSpace(clause), existing, names, values) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

func evalClause(clause string, existing map[string]types.AttributeValue, names map[string]string, values map[string]types.AttributeValue) bool {
	if strings.HasPrefix(clause, "attribute_not_exists(") {
		attr := resolveName(strings.TrimSuffix(strings.TrimPrefix(clause, "attribute_not_exists("), ")"), names)
		if existing == nil {
			return true
		}
		_, present := existing[attr]
		return !present
	}
	if strings.HasPrefix(clause, "attribute_exists(") {
		attr := resolveName(strings.TrimSuffix(strings.TrimPrefix(clause, "attribute_exists("), ")"), names)
		if existing == nil {
			return false
		}
		_, present := existing[attr]
		return present
	}

	parts := strings.SplitN(clause, " = ", 2)
	if len(parts) != 2 {
		return false
	}
	if existing == nil {
		return false
	}
	attr := resolveName(strings.TrimSpace(parts[0]), names)
	want, ok := values[strings.TrimSpace(parts[1])]
	if !ok {
		return false
	}
	have, ok := existing[attr]
	return ok && equalAV(have, want)
}

// applyUpdate executes a "SET #a = :a, #b = :b" expression in place.
func applyUpdate(item map[string]types.AttributeValue, updateExpression string, names map[string]string, values map[string]types.AttributeValue) {
	expr := strings.TrimPrefix(updateExpression, "SET ")
	for _, assignment := range strings.Split(expr, ", ") {
		parts := strings.SplitN(assignment, " = ", 2)
		if len(parts) != 2 {
			continue
		}
		attr := resolveName(strings.TrimSpace(parts[0]), names)
		if v, ok := values[strings.TrimSpace(parts[1])]; ok {
			item[attr] = v
		}
	}
}

func (f *fakeDB) GetItem(_ context.Context, tableName string, key map[string]types.AttributeValue) (map[string]types.AttributeValue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return copyItem(f.table(tableName)[f.keyOf(tableName, key)]), nil
}

func (f *fakeDB) PutItem(_ context.Context, tableName string, item interface{}) error {
	marshaled, err := attributevalue.MarshalMap(item)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.table(tableName)[f.keyOf(tableName, marshaled)] = marshaled
	return nil
}

func (f *fakeDB) PutItemWithCondition(_ context.Context, tableName string, item interface{}, conditionExpression string, names map[string]string, values map[string]types.AttributeValue) error {
	marshaled, err := attributevalue.MarshalMap(item)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := f.keyOf(tableName, marshaled)
	if !evalCondition(conditionExpression, f.table(tableName)[key], names, values) {
		return ErrConditionFailed
	}
	f.table(tableName)[key] = marshaled
	return nil
}

func (f *fakeDB) UpdateItem(_ context.Context, tableName string, updateExpression string, key map[string]types.AttributeValue, values map[string]types.AttributeValue, names map[string]string) (map[string]types.AttributeValue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := f.keyOf(tableName, key)
	item := f.table(tableName)[k]
	if item == nil {
		item = copyItem(key)
	}
	applyUpdate(item, updateExpression, names, values)
	f.table(tableName)[k] = item
	return copyItem(item), nil
}

func (f *fakeDB) UpdateItemWithCondition(_ context.Context, tableName string, updateExpression string, key map[string]types.AttributeValue, values map[string]types.AttributeValue, names map[string]string, conditionExpression string) (map[string]types.AttributeValue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := f.keyOf(tableName, key)
	item := f.table(tableName)[k]
	if !evalCondition(conditionExpression, item, names, values) {
		return nil, ErrConditionFailed
	}
	if item == nil {
		item = copyItem(key)
	}
	applyUpdate(item, updateExpression, names, values)
	f.table(tableName)[k] = item
	return copyItem(item), nil
}

func (f *fakeDB) DeleteItem(_ context.Context, tableName string, key map[string]types.AttributeValue) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.table(tableName), f.keyOf(tableName, key))
	return nil
}

type queryClause struct {
	attr string
	op   string
	want types.AttributeValue
}

func parseKeyCondition(expr string, names map[string]string, values map[string]types.AttributeValue) []queryClause {
	clauses := []queryClause{}
	for _, raw := range strings.Split(expr, " AND ") {
		raw = strings.TrimSpace(raw)
		op := " = "
		if strings.Contains(raw, " < ") {
			op = " < "
		}
		parts := strings.SplitN(raw, op, 2)
		if len(parts) != 2 {
			continue
		}
		clauses = append(clauses, queryClause{
			attr: resolveName(strings.TrimSpace(parts[0]), names),
			op:   strings.TrimSpace(op),
			want: values[strings.TrimSpace(parts[1])],
		})
	}
	return clauses
}

func matchClauses(item map[string]types.AttributeValue, clauses []queryClause) bool {
	for _, c := range clauses {
		have, ok := item[c.attr]
		if !ok {
			return false
		}
		switch c.op {
		case "=":
			if !equalAV(have, c.want) {
				return false
			}
		case "<":
			if !(sval(have) < sval(c.want)) {
				return false
			}
		}
	}
	return true
}

func (f *fakeDB) query(tableName, keyCondition string, values map[string]types.AttributeValue, names map[string]string, limit int32, latestFirst bool) []map[string]types.AttributeValue {
	f.mu.Lock()
	defer f.mu.Unlock()

	clauses := parseKeyCondition(keyCondition, names, values)
	var result []map[string]types.AttributeValue
	for _, item := range f.table(tableName) {
		if matchClauses(item, clauses) {
			result = append(result, copyItem(item))
		}
	}

	// Order by the table's sort key when it has one.
	schema := fakeKeySchema[tableName]
	if len(schema) == 2 {
		sortAttr := schema[1]
		sort.SliceStable(result, func(i, j int) bool {
			if latestFirst {
				return sval(result[i][sortAttr]) > sval(result[j][sortAttr])
			}
			return sval(result[i][sortAttr]) < sval(result[j][sortAttr])
		})
	}

	if limit > 0 && int32(len(result)) > limit {
		result = result[:limit]
	}
	return result
}

func (f *fakeDB) QueryItems(_ context.Context, tableName, keyCondition string, values map[string]types.AttributeValue, names map[string]string, limit int32) ([]map[string]types.AttributeValue, error) {
	return f.query(tableName, keyCondition, values, names, limit, false), nil
}

func (f *fakeDB) QueryItemsWithIndex(_ context.Context, tableName, _, keyCondition string, values map[string]types.AttributeValue, names map[string]string, limit int32) ([]map[string]types.AttributeValue, error) {
	return f.query(tableName, keyCondition, values, names, limit, false), nil
}

func (f *fakeDB) QueryItemsWithOptions(_ context.Context, tableName, keyCondition string, values map[string]types.AttributeValue, names map[string]string, limit int32, latestFirst bool) ([]map[string]types.AttributeValue, error) {
	return f.query(tableName, keyCondition, values, names, limit, latestFirst), nil
}

func (f *fakeDB) ScanWithFilter(_ context.Context, tableName string, filterFunc func(map[string]types.AttributeValue) bool, _ map[string]string, result interface{}) error {
	f.mu.Lock()
	var items []map[string]types.AttributeValue
	for _, item := range f.table(tableName) {
		if filterFunc == nil || filterFunc(item) {
			items = append(items, copyItem(item))
		}
	}
	f.mu.Unlock()
	return attributevalue.UnmarshalListOfMaps(items, result)
}

// TransactWriteItems checks every condition first and applies nothing
// unless all pass, mirroring transaction cancellation.
func (f *fakeDB) TransactWriteItems(_ context.Context, items []types.TransactWriteItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, it := range items {
		switch {
		case it.Put != nil:
			if it.Put.ConditionExpression == nil {
				continue
			}
			key := f.keyOf(*it.Put.TableName, it.Put.Item)
			existing := f.table(*it.Put.TableName)[key]
			if !evalCondition(*it.Put.ConditionExpression, existing, it.Put.ExpressionAttributeNames, it.Put.ExpressionAttributeValues) {
				return ErrConditionFailed
			}
		case it.Update != nil:
			if it.Update.ConditionExpression == nil {
				continue
			}
			key := f.keyOf(*it.Update.TableName, it.Update.Key)
			existing := f.table(*it.Update.TableName)[key]
			if !evalCondition(*it.Update.ConditionExpression, existing, it.Update.ExpressionAttributeNames, it.Update.ExpressionAttributeValues) {
				return ErrConditionFailed
			}
		}
	}

	for _, it := range items {
		switch {
		case it.Put != nil:
			f.table(*it.Put.TableName)[f.keyOf(*it.Put.TableName, it.Put.Item)] = copyItem(it.Put.Item)
		case it.Update != nil:
			key := f.keyOf(*it.Update.TableName, it.Update.Key)
			item := f.table(*it.Update.TableName)[key]
			if item == nil {
				item = copyItem(it.Update.Key)
			}
			applyUpdate(item, *it.Update.UpdateExpression, it.Update.ExpressionAttributeNames, it.Update.ExpressionAttributeValues)
			f.table(*it.Update.TableName)[key] = item
		}
	}
	return nil
}

func (f *fakeDB) seed(t *testing.T, tableName string, item interface{}) {
	t.Helper()
	if err := f.PutItem(context.Background(), tableName, item); err != nil {
		t.Fatalf("seed %s: %v", tableName, err)
	}
}

func (f *fakeDB) count(tableName string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.table(tableName))
}
