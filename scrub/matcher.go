package scrub

// keyBuckets maps business key -> records in input order, remembering the
// order keys were first seen so output stays deterministic. Bucketed
// lookup keeps matching linear; a nested scan over both sides would go
// quadratic on big exports.
type keyBuckets struct {
	order   []BusinessKey
	records map[BusinessKey][]*OrderRecord
}

func bucketRecords(records []OrderRecord) *keyBuckets {
	b := &keyBuckets{records: make(map[BusinessKey][]*OrderRecord, len(records))}
	for i := range records {
		r := &records[i]
		if _, seen := b.records[r.Key]; !seen {
			b.order = append(b.order, r.Key)
		}
		b.records[r.Key] = append(b.records[r.Key], r)
	}
	return b
}

// Match pairs every JobBoss record against customer records sharing its
// business key, positionally one-to-one within a bucket (duplicate keys
// are not deduplicated). Leftovers on either side become one-sided pairs.
// Every input record appears in exactly one pair.
//
// Output order: keys by first occurrence in the JobBoss input, then
// customer-only keys by first occurrence in the customer input.
func Match(jobBoss, customer []OrderRecord) []MatchedPair {
	jb := bucketRecords(jobBoss)
	cust := bucketRecords(customer)

	pairs := make([]MatchedPair, 0, len(jobBoss)+len(customer))

	for _, key := range jb.order {
		jbRecords := jb.records[key]
		custRecords := cust.records[key]
		delete(cust.records, key)

		n := len(jbRecords)
		if len(custRecords) < n {
			n = len(custRecords)
		}
		for i := 0; i < n; i++ {
			pairs = append(pairs, MatchedPair{Key: key, JobBoss: jbRecords[i], Customer: custRecords[i]})
		}
		for _, r := range jbRecords[n:] {
			pairs = append(pairs, MatchedPair{Key: key, JobBoss: r})
		}
		for _, r := range custRecords[n:] {
			pairs = append(pairs, MatchedPair{Key: key, Customer: r})
		}
	}

	for _, key := range cust.order {
		for _, r := range cust.records[key] {
			pairs = append(pairs, MatchedPair{Key: key, Customer: r})
		}
	}

	return pairs
}
