package redis

import "github.com/redis/go-redis/v9"

// Server-side scripts for the two compound operations. go-redis caches
// them via EVALSHA with automatic EVAL fallback, so the text is sent at
// most once per server.
//
// KEYS[1] is always the parts set, KEYS[2] the state hash.

// pushScript: reject when closed, add-if-absent, bump total only on a new
// member, slide both TTLs. Returns -1 closed, 0 already present, 1 added.
var pushScript = redis.NewScript(`
if redis.call('hget', KEYS[2], 'closed') then
  return -1
end

local added = redis.call('sadd', KEYS[1], ARGV[1])

if added == 1 then
  redis.call('hincrby', KEYS[2], 'total', 1)
end

redis.call('expire', KEYS[1], ARGV[2])
redis.call('expire', KEYS[2], ARGV[2])

return added
`)

// removeScript: remove-if-present; an absent member changes nothing, not
// even the TTLs. Returns {removed, remaining cardinality, closed}.
var removeScript = redis.NewScript(`
local removed = redis.call('srem', KEYS[1], ARGV[1])

if removed == 0 then
  return {0, 0, 0}
end

redis.call('expire', KEYS[1], ARGV[2])
redis.call('expire', KEYS[2], ARGV[2])

local closed = 0

if redis.call('hget', KEYS[2], 'closed') then
  closed = 1
end

return {1, redis.call('scard', KEYS[1]), closed}
`)
