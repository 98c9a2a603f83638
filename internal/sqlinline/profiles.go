package sqlinline

const QUpsertProfile = `--sql 3f6b7f59-9a6a-45cf-8b0e-0aa559f14d6e
insert into profiles (id, display_name)
values ($1::uuid, $2::text)
on conflict (id) do update
set display_name = coalesce(nullif(excluded.display_name, ''), profiles.display_name),
    updated_at   = now()
returning id, display_name, is_premium, credits, streak, created_at, updated_at;
`

const QSelectProfile = `--sql 5f4b70a2-40a1-4f05-9a4e-2ffb3a13f0ed
select id, display_name, is_premium, credits, streak, created_at, updated_at
from profiles
where id = $1::uuid;
`

const QSetPremium = `--sql 1f1427d8-6f45-41cd-9f95-0f6f20f6f3f3
update profiles
set is_premium = $2::boolean, updated_at = now()
where id = $1::uuid
returning is_premium;
`
