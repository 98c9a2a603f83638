package sqlinline

const QSelectPromoSettings = `--sql 78cf7dae-f67a-4e39-b150-783a1e43a4dc
select discount_amount, is_discount_active, coalesce(discount_ends_at, 'epoch'::timestamptz)
from promo_discount_settings
where id = 1;
`

const QSelectIntegrationToken = `--sql a819f0b3-ab51-45db-b468-b4667ec31bcb
select token
from integration_tokens
where provider = $1::text
order by updated_at desc
limit 1;
`

const QInsertIntegrationToken = `--sql 6cf6f6d0-3b4e-4b5e-9c57-0f4f8f4f2f11
insert into integration_tokens (provider, token, updated_at)
values ($1::text, $2::text, now());
`
