package sqlinline

// Daily check-in claim. A streak continues when the previous check-in was
// yesterday (local calendar), otherwise it restarts at 1. Every seventh
// consecutive day pays the milestone reward, other days pay one credit.
// The where-clause makes a same-day duplicate claim a no-op.
const QClaimDailyCheckin = `--sql 093a65ee-6c8d-4970-a33a-96b6c6879876
with claimed as (
    update profiles
    set streak = case
            when last_checkin_at is not null
                 and (last_checkin_at at time zone $2::text)::date = ((now() at time zone $2::text)::date - 1)
            then streak + 1
            else 1
        end,
        last_checkin_at = now(),
        updated_at = now()
    where id = $1::uuid
      and (last_checkin_at is null
           or (last_checkin_at at time zone $2::text)::date < (now() at time zone $2::text)::date)
    returning id, streak
),
rewarded as (
    update profiles p
    set credits = p.credits + case when c.streak % 7 = 0 then 10 else 1 end
    from claimed c
    where p.id = c.id
    returning c.streak, case when c.streak % 7 = 0 then 10 else 1 end as reward, p.credits
)
select streak, reward, credits from rewarded;
`
