package distributedjob

// Key layout for job records. The layout is shared with other clients of
// the same protocol and must not change:
//
//	{namespace:}distributed_jobs:{token}:parts  (set of live part IDs)
//	{namespace:}distributed_jobs:{token}:state  (hash: total, closed, stopped)
//
// The "namespace:" prefix is omitted entirely when no namespace is set.

const keyPrefix = "distributed_jobs:"

// partsKey returns the set key holding the not-yet-completed part IDs.
func partsKey(namespace, token string) string {
	return recordKey(namespace, token, "parts")
}

// stateKey returns the hash key holding total/closed/stopped.
func stateKey(namespace, token string) string {
	return recordKey(namespace, token, "state")
}

func recordKey(namespace, token, kind string) string {
	key := keyPrefix + token + ":" + kind
	if namespace == "" {
		return key
	}
	return namespace + ":" + key
}
