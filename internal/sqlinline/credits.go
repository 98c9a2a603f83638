package sqlinline

const QSelectCredits = `--sql ad1edea9-c4c7-4cd5-9df9-21a654ac9279
select credits from profiles where id = $1::uuid;
`

const QAddCredits = `--sql 83c44c4a-7c83-4bb8-be4f-6bbbd1b30200
update profiles
set credits = credits + $2::int, updated_at = now()
where id = $1::uuid
returning credits;
`

// Single atomic decrement. The balance guard and the daily-grant guard are
// part of the UPDATE predicate so concurrent duplicates serialize on the
// row and at most one can win the last unit of balance or the day's grant.
const QDeductCredits = `--sql be61fcd2-5bdc-4ad1-8205-ee0e8482be3b
update profiles
set credits = credits - $2::int,
    last_free_draw_at = case when $3::boolean then now() else last_free_draw_at end,
    updated_at = now()
where id = $1::uuid
  and credits >= $2::int
  and (not $3::boolean
       or last_free_draw_at is null
       or (last_free_draw_at at time zone $4::text)::date < (now() at time zone $4::text)::date)
returning credits;
`

const QSelectGrantState = `--sql 39008a3b-0bb6-4f65-a6f1-ed938664be77
select credits,
       last_free_draw_at is not null
       and (last_free_draw_at at time zone $2::text)::date = (now() at time zone $2::text)::date
from profiles
where id = $1::uuid;
`

const QRestoreDailyGrant = `--sql daff4f2a-62cd-4dad-8c16-cc84de6d8586
update profiles
set last_free_draw_at = null, updated_at = now()
where id = $1::uuid;
`

const QPremiumSessionsToday = `--sql aa00739b-ee52-4b66-8cfe-879792a4d76b
select count(*)
from fortune_sessions
where account_id = $1::uuid
  and is_premium_session
  and (created_at at time zone $2::text)::date = (now() at time zone $2::text)::date;
`
