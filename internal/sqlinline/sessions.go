package sqlinline

const QInsertFortuneSession = `--sql 9704ef64-a241-4b73-858c-eef157fdf110
insert into fortune_sessions (id, account_id, messages, messages_used, is_premium_session, credit_cost, created_at, updated_at)
values (gen_random_uuid(), $1::uuid, $2::jsonb, $3::int, $4::boolean, $5::int, now(), now())
returning id, created_at;
`

const QUpdateFortuneSessionMessages = `--sql 0a471c6a-248b-4ea1-9e78-37bd95882456
update fortune_sessions
set messages = $3::jsonb, messages_used = $4::int, updated_at = now()
where id = $2::uuid and account_id = $1::uuid;
`

const QSelectFortuneSession = `--sql acbc9acf-72db-4473-9d83-5cdf91fce3e2
select id, account_id, messages, messages_used, is_premium_session, credit_cost, created_at, updated_at
from fortune_sessions
where id = $2::uuid and account_id = $1::uuid;
`

const QListRecentFortuneSessions = `--sql 90f41363-07d9-4e27-9d73-42f60ae90809
select id, account_id, messages, messages_used, is_premium_session, credit_cost, created_at, updated_at
from fortune_sessions
where account_id = $1::uuid
order by created_at desc
limit $2::int;
`

const QFindActiveFortuneSession = `--sql 65aac9aa-fe92-47d5-9981-9c993e5fd393
select id, account_id, messages, messages_used, is_premium_session, credit_cost, created_at, updated_at
from fortune_sessions
where account_id = $1::uuid
  and created_at >= $2::timestamptz
  and messages_used < $3::int
order by created_at desc
limit 1;
`
